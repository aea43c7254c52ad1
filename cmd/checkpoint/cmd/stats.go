package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/checkpoint/internal/rules"
)

var statsCmd = &cobra.Command{
	Use:   "stats [SCHEMA...]",
	Short: "Print compiled rule statistics per schema",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type schemaStats struct {
	Fields     map[string]rules.NodeStats `json:"fields"`
	HasLookups bool                       `json:"has_lookups"`
}

func runStats(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	names := args
	if len(names) == 0 {
		names = rt.schemas.Names()
	}

	out := make(map[string]schemaStats, len(names))
	for _, name := range names {
		entry, err := rt.schemas.Get(name)
		if err != nil {
			return err
		}
		out[name] = schemaStats{
			Fields:     entry.Schema.Stats(),
			HasLookups: entry.Schema.HasLookups(),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	return nil
}
