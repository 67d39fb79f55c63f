package main

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terralab/landcover-cli/internal/landcover"
	"github.com/terralab/landcover-cli/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Compute buffer compositions for a point table",
	Long:  "Reads sample points from a CSV or XLSX table, resolves each point's dataset vintage, and writes the per-point land-cover composition of a circular buffer around it.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pointsFile, _ := cmd.Flags().GetString("points")
		radius, _ := cmd.Flags().GetFloat64("radius")
		vintageFlag, _ := cmd.Flags().GetString("vintage")
		level, _ := cmd.Flags().GetInt("level")
		outPath, _ := cmd.Flags().GetString("out")
		save, _ := cmd.Flags().GetBool("save")

		if radius == 0 {
			radius = cfg.Extract.RadiusMeters
		}
		vintage, err := parseVintageFlag(vintageFlag)
		if err != nil {
			return err
		}

		points, err := landcover.ReadPoints(pointsFile)
		if err != nil {
			return err
		}

		catalog, err := landcover.DiscoverVintages(cfg.Dataset.Root)
		if err != nil {
			return err
		}

		ext := landcover.NewExtractor(catalog, landcover.NewProjReprojector(), landcover.LoaderOptions{
			SRID:      cfg.Dataset.SRID,
			CodeField: cfg.Dataset.CodeField,
		}, cfg.Extract.MaxConcurrentVintages)

		table, err := ext.FullCompositions(ctx, points, landcover.ExtractOptions{
			RadiusMeters: radius,
			Segments:     cfg.Extract.Segments,
			PointsSRID:   cfg.Extract.PointsSRID,
			Vintage:      vintage,
		})
		if err != nil {
			return err
		}

		if level == 1 || level == 2 {
			if table, err = landcover.AggregateToLevel(table, level); err != nil {
				return err
			}
		}

		if save {
			st, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			run := store.Run{
				ID:           store.NewRunID(),
				PointsFile:   pointsFile,
				RadiusMeters: radius,
				Vintage:      vintageFlag,
				Points:       len(points),
				CreatedAt:    time.Now().UTC(),
			}
			if err := st.SaveRun(ctx, run, table); err != nil {
				return err
			}
			zap.L().Info("extraction saved", zap.String("run_id", run.ID))
		}

		return writeTable(table, outPath)
	},
}

// parseVintageFlag maps "auto" (or empty) to automatic per-point selection
// and anything else to a fixed dataset year.
func parseVintageFlag(v string) (int, error) {
	if v == "" || v == "auto" {
		return 0, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Errorf("invalid --vintage %q: expected \"auto\" or a year", v)
	}
	return year, nil
}

func writeTable(table *landcover.Table, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create output file %s", path)
		}
		defer f.Close()
		w = f
	}
	return table.WriteCSV(w)
}

func init() {
	extractCmd.Flags().String("points", "", "point table (.csv or .xlsx) with point_id, longitude, latitude and optional year columns")
	extractCmd.Flags().Float64("radius", 0, "buffer radius in meters (default from config)")
	extractCmd.Flags().String("vintage", "auto", `dataset vintage: "auto" or a fixed year`)
	extractCmd.Flags().Int("level", 3, "category aggregation level (1, 2 or 3)")
	extractCmd.Flags().String("out", "", "output CSV path (default stdout)")
	extractCmd.Flags().Bool("save", false, "persist the run and its compositions to the store")
	extractCmd.MarkFlagRequired("points") //nolint:errcheck
	rootCmd.AddCommand(extractCmd)
}
