package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terralab/landcover-cli/internal/landcover"
)

var vintagesCmd = &cobra.Command{
	Use:   "vintages",
	Short: "List available dataset vintages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := landcover.DiscoverVintages(cfg.Dataset.Root)
		if err != nil {
			return err
		}

		forYear, _ := cmd.Flags().GetInt("for-year")
		if forYear > 0 {
			resolved, err := catalog.Resolve(forYear)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "YEAR\tFORMAT\tFILE")
		for _, year := range catalog.Years {
			format, path, err := landcover.DetectFormat(catalog.Root, year)
			if err != nil {
				fmt.Fprintf(tw, "%d\t-\t%s\n", year, err)
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", year, format, path)
		}
		return tw.Flush()
	},
}

func init() {
	vintagesCmd.Flags().Int("for-year", 0, "print the vintage resolved for a sampling year instead of listing")
	rootCmd.AddCommand(vintagesCmd)
}
