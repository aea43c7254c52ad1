package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrRecordInvalid is returned when the validated record fails its schema.
var ErrRecordInvalid = errors.New("record failed validation")

var validateCmd = &cobra.Command{
	Use:   "validate SCHEMA [FILE]",
	Short: "Validate a JSON record against a schema",
	Long: `Validate reads one JSON object from FILE (or stdin when FILE is omitted
or "-") and prints the validation result as JSON. The exit status is 1 when
the record fails validation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("nested", false, "flatten nested input before validation")
	validateCmd.Flags().Bool("fail-fast", true, "stop at the first failing rule of each field")
	validateCmd.Flags().Bool("stop-on-first-error", false, "stop at the first failing field")
}

func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	entry, err := rt.schemas.Get(args[0])
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	record, err := readRecord(in)
	if err != nil {
		return err
	}

	result, err := entry.Validator.Validate(cmd.Context(), record)
	if err != nil {
		return err
	}
	rt.logger.Debug("record validated",
		zap.String("schema", entry.Name),
		zap.String("run_id", string(result.RunID())),
		zap.Bool("passed", result.Passes()))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if result.Fails() {
		return ErrRecordInvalid
	}
	return nil
}

// readRecord decodes a single JSON object, keeping numbers exact.
func readRecord(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}
