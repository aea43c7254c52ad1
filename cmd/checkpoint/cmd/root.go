package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/checkpoint/internal/core/config"
	"github.com/solatis/checkpoint/internal/core/db"
	"github.com/solatis/checkpoint/internal/core/logging"
	"github.com/solatis/checkpoint/internal/core/metrics"
	"github.com/solatis/checkpoint/internal/core/schemafile"
	"github.com/solatis/checkpoint/internal/rules"
)

// Version is the checkpoint release.
const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	schemaFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "checkpoint",
	Short:         "Checkpoint record validation engine",
	Long:          `Checkpoint validates records against declarative rule schemas, running cheap checks first and batching database lookups.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "lookup database URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "schemas", "s", "", "schema file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// flagKeys maps flags onto configuration keys. Only flags set on the
// command line override the environment and config file.
var flagKeys = map[string]string{
	"db-url":              config.KeyDatabaseURL,
	"schemas":             config.KeySchemaFile,
	"host":                config.KeyServerHost,
	"port":                config.KeyServerPort,
	"metrics-addr":        config.KeyServerMetricsAddr,
	"nested":              config.KeyEngineNested,
	"fail-fast":           config.KeyEngineFailFast,
	"stop-on-first-error": config.KeyEngineStopOnFirst,
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(flag)
			overrides[key] = v
		case "int":
			v, _ := cmd.Flags().GetInt(flag)
			overrides[key] = v
		default:
			overrides[key] = f.Value.String()
		}
	}

	cfg, err := config.LoadConfig(configFile, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// runtime holds what every subcommand builds from the configuration.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *rules.Engine
	schemas *schemafile.Set
	closers []io.Closer
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		_ = r.closers[i].Close()
	}
	_ = r.logger.Sync()
}

// setup loads configuration, connects the lookup database when one is
// configured and compiles the schema file. collector may be nil.
func setup(cmd *cobra.Command, collector *metrics.Collector) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logLevel, logFormat)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	var provider rules.LookupProvider
	if cfg.Database.URL != "" {
		database, err := db.Open(cfg.Database.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, database)

		sqlProvider, err := db.NewSQLProvider(database, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		provider = sqlProvider
		if collector != nil {
			provider = collector.InstrumentProvider(sqlProvider)
		}
	}

	rt.engine = rules.NewEngine(nil, provider, logger,
		rules.WithFailFast(cfg.Engine.FailFast),
		rules.WithStopOnFirstError(cfg.Engine.StopOnFirstError),
		rules.WithNested(cfg.Engine.Nested),
		rules.WithStrictLookups(cfg.Engine.StrictLookups),
	)

	rt.schemas, err = schemafile.Load(cfg.Schema.File, rt.engine)
	if err != nil {
		rt.Close()
		return nil, err
	}
	logger.Debug("schemas loaded",
		zap.String("file", cfg.Schema.File),
		zap.Strings("schemas", rt.schemas.Names()),
		zap.Bool("lookups", provider != nil))
	return rt, nil
}
