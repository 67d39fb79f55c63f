package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terralab/landcover-cli/internal/legend"
)

var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Print the land-cover nomenclature",
	RunE: func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetInt("level")
		asJSON, _ := cmd.Flags().GetBool("json")

		entries, err := legend.Entries(level)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tLABEL")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\n", e.Code, e.Label)
		}
		return tw.Flush()
	},
}

func init() {
	legendCmd.Flags().Int("level", 3, "nomenclature level (1, 2 or 3)")
	legendCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(legendCmd)
}
