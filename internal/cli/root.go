// Package cli implements the schoolcore command line: on-demand runs of
// the legacy migration engine, the holiday feed client, and user
// administration over the durable store.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calverley/schoolcore/internal/cache"
	"github.com/calverley/schoolcore/internal/config"
	"github.com/calverley/schoolcore/internal/legacy"
	"github.com/calverley/schoolcore/internal/schema"
	"github.com/calverley/schoolcore/internal/storage"
	"github.com/calverley/schoolcore/internal/table"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric  = "E000"
	ErrCodeStorage  = "E001"
	ErrCodeNotFound = "E002"
	ErrCodeFeed     = "E003"
	ErrCodeInput    = "E004"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath     string
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the schoolcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "schoolcore",
		Short: "School administration data core",
		Long:  "Durable table store, cache, legacy-storage cleanup, and holiday feed for the school administration tool.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))
	cmd.AddCommand(NewHolidaysCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env is the wired-up core a command operates on.
type env struct {
	cfg    config.Config
	kv     *storage.SQLite
	tables *table.Store
	cache  *cache.Cache
	engine *legacy.Engine
	log    *zap.Logger
}

// newLogger returns the diagnostic logger for a command invocation:
// a no-op unless --verbose is set.
func newLogger(opts *RootOptions) (*zap.Logger, error) {
	if !opts.Verbose {
		return zap.NewNop(), nil
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "init logger", err)
	}
	return log, nil
}

// openEnv loads config, opens the database, and wires the stores.
// Callers must Close.
func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	log, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	schemas, err := schema.NewRegistry()
	if err != nil {
		kv.Close()
		return nil, WrapExitError(ExitCommandError, "compile schemas", err)
	}

	whitelist := legacy.DefaultWhitelist().Extend(
		cfg.Cleanup.WhitelistKeys,
		cfg.Cleanup.WhitelistPrefixes,
	)

	tables := table.New(kv, schemas, table.WithLogger(log))

	return &env{
		cfg:    cfg,
		kv:     kv,
		tables: tables,
		cache: cache.New(tables,
			cache.WithTTLs(cfg.VolatileTTL.Std(), cfg.StaticTTL.Std()),
			cache.WithLogger(log)),
		engine: legacy.New(kv, legacy.WithWhitelist(whitelist), legacy.WithLogger(log)),
		log:    log,
	}, nil
}

func (e *env) Close() error {
	return e.kv.Close()
}
