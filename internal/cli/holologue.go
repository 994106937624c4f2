package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/fieldkit/internal/workflow"
)

// HolologueRunOptions holds flags for the holologue run command.
type HolologueRunOptions struct {
	*RootOptions
	Items      []string
	Kind       string
	Fail       bool
	FailReason string
}

// NewHolologueCommand creates the holologue command group.
func NewHolologueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holologue",
		Short: "Synthesize artifacts from item selections",
	}
	cmd.AddCommand(newHolologueRunCommand(rootOpts))
	return cmd
}

func newHolologueRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HolologueRunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Synthesize one artifact from selected items",
		Long: `Synthesize one artifact item from a selection of at least two items.

Validation runs before any credits move; a rejected selection costs
nothing. After the spend, success creates the artifact and grants the
reward, failure refunds the spend in full.

Example:
  fieldkit holologue run --item it_abc --item it_def --kind plan`,
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

			res, err := orch.RunHolologue(cmd.Context(), opts.Items, opts.Kind, runOptions(opts.Fail, opts.FailReason))
			if err != nil {
				return f.Fail(err)
			}

			if res.Succeeded {
				f.Textf("Holologue completed.")
				f.Textf("  Artifact: %s", res.OutputItem.ID)
				f.Textf("  Title: %s", res.OutputItem.Title)
			} else {
				f.Textf("Holologue failed: %s", res.FailureReason)
				f.Textf("  Spend refunded.")
			}
			f.Textf("  Credits: %d", res.Balance)
			if rootOpts.Format == "json" {
				return f.JSON(runPayload(res))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "selected item id (repeatable, at least two)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "plan", "artifact kind (plan|checklist|spec_fragment)")
	cmd.Flags().BoolVar(&opts.Fail, "fail", false, "force the run to fail (exercises the refund path)")
	cmd.Flags().StringVar(&opts.FailReason, "fail-reason", "", "reason recorded on a forced failure")
	cmd.MarkFlagRequired("item")

	return cmd
}

// runOptions maps the shared --fail flags onto workflow run options.
func runOptions(fail bool, reason string) workflow.RunOptions {
	return workflow.RunOptions{ForceFail: fail, FailReason: reason}
}

// runPayload shapes a run result for the JSON envelope.
func runPayload(res *workflow.RunResult) map[string]interface{} {
	payload := map[string]interface{}{
		"succeeded": res.Succeeded,
		"balance":   res.Balance,
	}
	if res.OutputItem != nil {
		payload["output_item"] = res.OutputItem
	}
	if res.FailureReason != "" {
		payload["failure_reason"] = res.FailureReason
	}
	return payload
}
