package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/fieldkit/internal/schema"
)

// BondCreateOptions holds flags for the bond create command.
type BondCreateOptions struct {
	*RootOptions
	Inputs []string
	Prompt string
	Intent string
	Recipe string
}

// BondRunOptions holds flags for the bond run command.
type BondRunOptions struct {
	*RootOptions
	OutputType string
	Fail       bool
	FailReason string
}

// NewBondCommand creates the bond command group.
func NewBondCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Create and run bonds",
	}
	cmd.AddCommand(newBondCreateCommand(rootOpts))
	cmd.AddCommand(newBondRunCommand(rootOpts))
	return cmd
}

func newBondCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BondCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft bond over existing items",
		Long: `Create a draft bond: a prompt applied to one or more input items. The
draft costs nothing; credits move only when it runs.

Example:
  fieldkit bond create --input it_abc --prompt "Expand into a checklist" --intent expand_to_checklist`,
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

			bond, err := orch.CreateBondDraft(cmd.Context(), opts.Inputs, opts.Prompt, opts.Intent, opts.Recipe)
			if err != nil {
				return f.Fail(err)
			}

			f.Textf("Created draft bond %s", bond.ID)
			f.Textf("  Inputs: %d", len(bond.InputItemIDs))
			f.Textf("  Prompt: %s", bond.PromptText)
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"bond": bond})
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.Inputs, "input", nil, "input item id (repeatable)")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "prompt text")
	cmd.Flags().StringVar(&opts.Intent, "intent", "", "intent type")
	cmd.Flags().StringVar(&opts.Recipe, "recipe", "", "originating recipe id")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("prompt")

	return cmd
}

func newBondRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BondRunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <bond-id>",
		Short: "Execute a draft bond",
		Long: `Execute a draft bond. The run spends credits up front and settles with
exactly one outcome: success creates the output item and grants the reward,
failure refunds the spend in full and leaves the bond draft for a retry.
An executed bond cannot run again.`,
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

			res, err := orch.RunBond(cmd.Context(), args[0], schema.QDPIKind(opts.OutputType), runOptions(opts.Fail, opts.FailReason))
			if err != nil {
				return f.Fail(err)
			}

			if res.Succeeded {
				f.Textf("Bond executed.")
				f.Textf("  Output: %s", res.OutputItem.ID)
				f.Textf("  Title: %s", res.OutputItem.Title)
			} else {
				f.Textf("Bond failed: %s", res.FailureReason)
				f.Textf("  Spend refunded, draft kept for retry.")
			}
			f.Textf("  Credits: %d", res.Balance)
			if rootOpts.Format == "json" {
				return f.JSON(runPayload(res))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.OutputType, "output-type", "D", "QDPI kind of the output item")
	cmd.Flags().BoolVar(&opts.Fail, "fail", false, "force the run to fail (exercises the refund path)")
	cmd.Flags().StringVar(&opts.FailReason, "fail-reason", "", "reason recorded on a forced failure")

	return cmd
}
