package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/addons"
)

var toggleYes bool

var enableCmd = &cobra.Command{
	Use:   "enable <addon...>",
	Short: "Enable disabled addons",
	Long: `Enable addons that were disabled, by renaming their files back to .dll.

Examples:
  gw2ctl enable arcdps`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args, true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <addon...>",
	Short: "Disable addons without removing them",
	Long: `Disable addons by renaming their files to .dll_disabled. The files stay in
place and 'gw2ctl enable' brings them back. The addon loader cannot be
disabled.

Examples:
  gw2ctl disable arcdps`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(cmd, args, false)
	},
}

func runToggle(cmd *cobra.Command, args []string, enable bool) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.requireGameDir(); err != nil {
		return err
	}

	selected, err := a.resolveAddons(args)
	if err != nil {
		return err
	}

	verb, title, fn := "Disable", "Disabling addons", (*addons.Manager).Disable
	if enable {
		verb, title, fn = "Enable", "Enabling addons", (*addons.Manager).Enable
	}

	if !confirmBatch(confirmer(toggleYes), verb+" addons", verb, selected, false) {
		fmt.Println("Cancelled.")
		return nil
	}

	return runBatch(cmd.Context(), title, a.manager, selected, fn)
}

func init() {
	enableCmd.Flags().BoolVarP(&toggleYes, "yes", "y", false, "Skip confirmation prompt")
	disableCmd.Flags().BoolVarP(&toggleYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}
