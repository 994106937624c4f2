package cli

import (
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace",
		Long: `Initialize the workspace: create the network, its first episode, and the
seed credit grant. Running init on an initialized workspace is a no-op.`,
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

			res, err := orch.InitWorkspace(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}

			if res.Created {
				f.Textf("Workspace initialized.")
			} else {
				f.Textf("Workspace already initialized.")
			}
			f.Textf("  Network: %s", res.Workspace.NetworkID)
			f.Textf("  Episode: %s", res.Workspace.EpisodeID)
			f.Textf("  Credits: %d", res.Balance)
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{
					"created":    res.Created,
					"network_id": res.Workspace.NetworkID,
					"episode_id": res.Workspace.EpisodeID,
					"balance":    res.Balance,
				})
			}
			return nil
		},
	}
}

// NewFieldCommand creates the field command.
func NewFieldCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "field",
		Short:         "Open the field surface",
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

			if err := orch.OpenField(cmd.Context()); err != nil {
				return f.Fail(err)
			}
			f.Textf("Field opened.")
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"opened": true})
			}
			return nil
		},
	}
}

// NewTutorialCommand creates the tutorial command.
func NewTutorialCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tutorial",
		Short:         "Start the tutorial",
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

			if err := orch.StartTutorial(cmd.Context()); err != nil {
				return f.Fail(err)
			}
			f.Textf("Tutorial started. Create your first note with 'fieldkit item create'.")
			if rootOpts.Format == "json" {
				return f.JSON(map[string]interface{}{"started": true})
			}
			return nil
		},
	}
}
