package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CurateOptions holds flags shared by curate add and curate remove.
type CurateOptions struct {
	*RootOptions
	Item string
	Bond string
}

// NewCurateCommand creates the curate command group.
func NewCurateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Manage the episode's curated lists",
		Long: `Manage the active episode's curated item and bond lists. Curated entries
are ordered and duplicate-free; the canon view resolves them lazily and
warns about entries that went stale.`,
	}
	cmd.AddCommand(newCurateAddCommand(rootOpts))
	cmd.AddCommand(newCurateRemoveCommand(rootOpts))
	return cmd
}

func newCurateAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CurateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item or bond to the curated lists",
		Example: `  fieldkit curate add --item it_abc
  fieldkit curate add --bond bd_def`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurate(rootOpts, opts, cmd, true)
		},
	}

	cmd.Flags().StringVar(&opts.Item, "item", "", "item id to curate")
	cmd.Flags().StringVar(&opts.Bond, "bond", "", "bond id to curate")
	return cmd
}

func newCurateRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CurateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "remove",
		Short:         "Remove an item or bond from the curated lists",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurate(rootOpts, opts, cmd, false)
		},
	}

	cmd.Flags().StringVar(&opts.Item, "item", "", "item id to remove")
	cmd.Flags().StringVar(&opts.Bond, "bond", "", "bond id to remove")
	return cmd
}

// runCurate dispatches one curation change. Exactly one of --item and
// --bond must be set.
func runCurate(rootOpts *RootOptions, opts *CurateOptions, cmd *cobra.Command, add bool) error {
	f := formatter(rootOpts, cmd)

	if (opts.Item == "") == (opts.Bond == "") {
		return f.Fail(fmt.Errorf("exactly one of --item or --bond is required"))
	}

	orch, st, err := openWorkspace(rootOpts, cmd)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	ctx := cmd.Context()
	verb := "Removed"
	switch {
	case add && opts.Item != "":
		err = orch.CurateItemAdd(ctx, opts.Item)
		verb = "Curated"
	case add:
		err = orch.CurateBondAdd(ctx, opts.Bond)
		verb = "Curated"
	case opts.Item != "":
		err = orch.CurateItemRemove(ctx, opts.Item)
	default:
		err = orch.CurateBondRemove(ctx, opts.Bond)
	}
	if err != nil {
		return f.Fail(err)
	}

	id := opts.Item
	if id == "" {
		id = opts.Bond
	}
	f.Textf("%s %s", verb, id)
	if rootOpts.Format == "json" {
		return f.JSON(map[string]interface{}{"id": id, "added": add})
	}
	return nil
}

// NewCanonCommand creates the canon command.
func NewCanonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "canon",
		Short: "Show the curated projection",
		Long: `Resolve the curated lists against current state. Entries that went stale
(archived, missing, out of scope) are dropped from the projection with a
warning; the stored lists themselves are never modified by reading them.`,
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

			projection, err := orch.CuratedProjection(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}

			f.Textf("Canon for episode %s:", projection.EpisodeID)
			f.Textf("  Items (%d):", len(projection.Items))
			for _, item := range projection.Items {
				f.Textf("    %s [%s] %s", item.ID, item.Type, item.Title)
			}
			f.Textf("  Bonds (%d):", len(projection.Bonds))
			for _, bond := range projection.Bonds {
				f.Textf("    %s [%s] %s", bond.ID, bond.Status, bond.PromptText)
			}
			for _, w := range projection.Warnings {
				f.Textf("  Warning: %s", w)
			}
			if rootOpts.Format == "json" {
				return f.JSON(projection)
			}
			return nil
		},
	}
}
