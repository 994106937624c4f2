package cli

import (
	"github.com/spf13/cobra"
)

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Show the workspace ledger",
		Long: `Show everything in the active episode: items, bonds, the event log, and
every credit movement with its running balance.`,
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

			ledger, err := orch.OpenLedger(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}
			if rootOpts.Format == "json" {
				return f.JSON(ledger)
			}

			f.Textf("Ledger")
			f.Textf("  Networks: %d  Episodes: %d  Events: %d", ledger.NetworkCount, ledger.EpisodeCount, ledger.EventCount)
			f.Textf("")
			f.Textf("Items (%d):", len(ledger.Items))
			for _, item := range ledger.Items {
				marker := ""
				if item.Archived() {
					marker = " [archived]"
				}
				f.Textf("  %s [%s] %s%s", item.ID, item.Type, item.Title, marker)
			}
			f.Textf("")
			f.Textf("Bonds (%d):", len(ledger.Bonds))
			for _, bond := range ledger.Bonds {
				f.Textf("  %s [%s] %s", bond.ID, bond.Status, bond.PromptText)
			}
			f.Textf("")
			f.Textf("Credits:")
			for _, line := range ledger.Credits {
				f.Textf("  [%d] %+d -> %d (%s)", line.Seq, line.Delta, line.BalanceAfter, line.Reason)
			}
			f.Textf("")
			f.Textf("Balance: %d", ledger.Balance)
			return nil
		},
	}
}
