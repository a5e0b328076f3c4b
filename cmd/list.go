package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var listInstalled bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List catalog addons and their state",
	Long: `List every addon of the configured repositories with its install state.

The state is read from the game directory on every run:
  enabled        the addon's files are present and active
  disabled       the addon's files are present but renamed out of the way
  not installed  nothing of the addon is present

Examples:
  gw2ctl list
  gw2ctl list --installed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.requireGameDir(); err != nil {
			return err
		}

		statuses, err := a.manager.ListStatus()
		if err != nil {
			return fmt.Errorf("failed to list addons: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			styles.Title.Render("NAME"),
			styles.Title.Render("NICKNAME"),
			styles.Title.Render("VERSION"),
			styles.Title.Render("MODE"),
			styles.Title.Render("STATE"),
		)

		shown, installed := 0, 0
		for _, status := range statuses {
			if status.State.Installed() {
				installed++
			} else if listInstalled {
				continue
			}

			version := status.Addon.VersionID
			if version == "" || !status.Addon.VersionIDIsHumanReadable {
				version = "-"
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				status.Addon.Name(),
				status.Addon.Nickname,
				version,
				status.Addon.InstallMode,
				styles.FormatState(status.State),
			)
			shown++
		}

		_ = w.Flush()

		fmt.Printf("\n%d addon(s) shown, %d installed\n", shown, installed)
		fmt.Printf("Game directory: %s\n", a.manager.GameDir())

		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "Only show installed addons")
	rootCmd.AddCommand(listCmd)
}
