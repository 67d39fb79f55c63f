package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terralab/landcover-cli/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and unpack a dataset vintage archive",
	Long:  "Downloads a zipped vintage archive over FTP or HTTP and extracts it into the dataset root under the vintage year.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		year, _ := cmd.Flags().GetInt("year")
		rawURL, _ := cmd.Flags().GetString("url")

		if cfg.Dataset.Root == "" {
			return eris.New("dataset root is not configured")
		}
		destDir := filepath.Join(cfg.Dataset.Root, strconv.Itoa(year))
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return eris.Wrapf(err, "create vintage directory %s", destDir)
		}

		archive := filepath.Join(destDir, "archive.zip")
		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second

		zap.L().Info("fetching vintage archive",
			zap.Int("year", year),
			zap.String("url", rawURL),
		)

		var (
			n   int64
			err error
		)
		switch {
		case strings.HasPrefix(rawURL, "ftp://"):
			n, err = fetcher.NewFTPFetcher(timeout, cfg.Fetch.BytesPerSec).DownloadToFile(ctx, rawURL, archive)
		case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
			n, err = fetcher.NewHTTPFetcher(timeout, cfg.Fetch.BytesPerSec).DownloadToFile(ctx, rawURL, archive)
		default:
			return eris.Errorf("unsupported URL scheme in %q", rawURL)
		}
		if err != nil {
			return err
		}

		count, err := fetcher.ExtractZip(archive, destDir)
		if err != nil {
			return err
		}
		if err := os.Remove(archive); err != nil {
			zap.L().Warn("could not remove downloaded archive", zap.Error(err))
		}

		zap.L().Info("vintage archive unpacked",
			zap.Int("year", year),
			zap.Int64("bytes", n),
			zap.Int("files", count),
		)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("year", 0, "vintage year the archive belongs to")
	fetchCmd.Flags().String("url", "", "archive URL (ftp:// or http(s)://)")
	fetchCmd.MarkFlagRequired("year") //nolint:errcheck
	fetchCmd.MarkFlagRequired("url")  //nolint:errcheck
	rootCmd.AddCommand(fetchCmd)
}
