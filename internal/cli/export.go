package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export commands.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command group.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export workspace state as JSON documents",
	}
	cmd.AddCommand(newExportEpisodeCommand(rootOpts))
	cmd.AddCommand(newExportCuratedCommand(rootOpts))
	return cmd
}

func newExportEpisodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Export the active episode in full",
		Long: `Export the active episode: its network, every item and bond (archived
included), the full event log, and the derived counts and balance.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			orch, st, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			export, err := orch.ExportEpisode(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}
			return writeExport(f, opts, export)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "write the export to this file instead of stdout")
	return cmd
}

func newExportCuratedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "curated",
		Short: "Export the curated projection",
		Long: `Export the curated projection together with the raw curated lists it was
resolved from, so stale entries remain visible in the document.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			orch, st, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			export, err := orch.ExportCurated(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}
			return writeExport(f, opts, export)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "write the export to this file instead of stdout")
	return cmd
}

// writeExport renders an export document to --out or stdout. Exports are
// always JSON; the --format flag only shapes the confirmation line.
func writeExport(f *OutputFormatter, opts *ExportOptions, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return f.Fail(fmt.Errorf("marshal export: %w", err))
	}

	if opts.Out == "" {
		fmt.Fprintln(f.Writer, string(data))
		return nil
	}
	if err := os.WriteFile(opts.Out, append(data, '\n'), 0o644); err != nil {
		return f.Fail(fmt.Errorf("write export: %w", err))
	}
	f.Textf("Wrote export to %s", opts.Out)
	return nil
}
