package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/gw2ctl/internal/ui/styles"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search the addon catalog",
	Long: `Search addons by nickname, name, developer and description.

Examples:
  gw2ctl search arc
  gw2ctl search "build templates"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		results := a.catalog.Search(strings.Join(args, " "))
		if len(results) == 0 {
			fmt.Println("No addons found")
			return nil
		}

		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}

		for _, r := range results {
			line := styles.AddonName.Render(r.Addon.Name()) + " " + styles.MutedText.Render("("+r.Addon.Nickname+")")
			if r.Addon.Developer != "" {
				line += " " + styles.AddonAuthor.Render("by "+r.Addon.Developer)
			}
			fmt.Println(line)
			if r.Addon.Description != "" {
				fmt.Println("  " + styles.MutedText.Render(r.Addon.Description))
			}
		}

		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results (0 for all)")
	rootCmd.AddCommand(searchCmd)
}
