package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/fieldkit/internal/schema"
)

// ItemCreateOptions holds flags for the item create command.
type ItemCreateOptions struct {
	*RootOptions
	Title string
	Body  string
	Type  string
}

// NewItemCommand creates the item command group.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Create and archive items",
	}
	cmd.AddCommand(newItemCreateCommand(rootOpts))
	cmd.AddCommand(newItemArchiveCommand(rootOpts))
	return cmd
}

func newItemCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new item",
		Long: `Create a user-authored item in the active episode.

The type is the item's QDPI kind: Q (question), M (monologue), D (dialogue),
or H (holologue artifact).

Example:
  fieldkit item create --title "Cache invalidation" --type M`,
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

			item, err := orch.CreateItem(cmd.Context(), opts.Title, opts.Body, schema.QDPIKind(opts.Type))
			if err != nil {
				return f.Fail(err)
			}
			balance, err := orch.CreditBalance(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}

			f.Textf("Created item %s (%s)", item.ID, item.Type)
			f.Textf("  Title: %s", item.Title)
			f.Textf("  Credits: %d", balance)
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"item": item, "balance": balance})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "item title")
	cmd.Flags().StringVar(&opts.Body, "body", "", "item body")
	cmd.Flags().StringVar(&opts.Type, "type", "M", "QDPI kind (Q|M|D|H)")
	cmd.MarkFlagRequired("title")

	return cmd
}

func newItemArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <item-id>",
		Short: "Archive an item",
		Long: `Soft-archive an item. Archived items drop out of listings and curated
projections but their history stays in the log. Archiving an already
archived item is a no-op.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			orch, st, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			if err := orch.ArchiveItem(cmd.Context(), args[0]); err != nil {
				return f.Fail(err)
			}
			f.Textf("Archived item %s", args[0])
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"archived": args[0]})
			}
			return nil
		},
	}
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <item-id>",
		Short: "Show prompt suggestions for an item",
		Long: `Render the four prompt suggestions for an item and record their
presentation. Suggestions are events-only: nothing is created until one is
turned into a bond with 'fieldkit bond create'.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(rootOpts, cmd)
			orch, st, err := openWorkspace(rootOpts, cmd)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			suggestions, err := orch.PresentSuggestions(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err)
			}

			f.Textf("Suggestions for %s:", args[0])
			for i, s := range suggestions {
				f.Textf("  %d. [%s] %s", i+1, s.IntentType, s.PromptText)
			}
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"item_id": args[0], "suggestions": suggestions})
			}
			return nil
		},
	}
}
