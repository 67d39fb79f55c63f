package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terralab/landcover-cli/internal/landcover"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <compositions.csv>",
	Short: "Re-express a composition table at a coarser category level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetInt("level")
		outPath, _ := cmd.Flags().GetString("out")

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open composition table %s", args[0])
		}
		defer f.Close()

		table, err := landcover.ReadCSV(f)
		if err != nil {
			return err
		}

		out, err := landcover.AggregateToLevel(table, level)
		if err != nil {
			return err
		}

		return writeTable(out, outPath)
	},
}

func init() {
	aggregateCmd.Flags().Int("level", 1, "target category level (1 or 2)")
	aggregateCmd.Flags().String("out", "", "output CSV path (default stdout)")
	rootCmd.AddCommand(aggregateCmd)
}
