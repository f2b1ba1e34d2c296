package main

import (
	"github.com/spf13/cobra"

	"github.com/fredcamaral/deckforge/internal/domain/services"
)

// layoutsCmd represents the layouts command
var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the built-in slide layouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog := services.NewLayoutResolver().Catalog()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), catalog)
		}
		printLayouts(cmd.OutOrStdout(), catalog)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
}
