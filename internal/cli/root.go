// Package cli implements the fieldkit command surface. Every command opens
// the workspace database, runs one orchestrator operation, and renders the
// result as text or JSON.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldkit/internal/policy"
	"github.com/roach88/fieldkit/internal/store"
	"github.com/roach88/fieldkit/internal/workflow"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	DBPath  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultDBPath is the workspace database location when --db is not given.
const DefaultDBPath = "fieldkit.db"

// NewRootCommand creates the root command for the fieldkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fieldkit",
		Short: "Field-Kit - a local event-sourced workspace",
		Long: `Field-Kit keeps a single local workspace: notes and transforms live in an
append-only event log, and every derived view folds over that log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", DefaultDBPath, "workspace database path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewFieldCommand(opts))
	cmd.AddCommand(NewTutorialCommand(opts))
	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewBondCommand(opts))
	cmd.AddCommand(NewHolologueCommand(opts))
	cmd.AddCommand(NewCurateCommand(opts))
	cmd.AddCommand(NewCanonCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

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

// openWorkspace opens the workspace database and builds the orchestrator
// over it. The caller must Close the returned store.
func openWorkspace(opts *RootOptions, cmd *cobra.Command) (*workflow.Orchestrator, *store.Store, error) {
	if dir := filepath.Dir(opts.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	level := zerolog.WarnLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(level).
		With().Timestamp().Logger()

	st, err := store.Open(opts.DBPath, store.WithLogger(log))
	if err != nil {
		return nil, nil, fmt.Errorf("open workspace: %w", err)
	}

	pol, err := policy.Load()
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load policy: %w", err)
	}

	orch := workflow.New(st, pol, workflow.WithLogger(log))
	return orch, st, nil
}

// formatter builds the output formatter for a command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
