package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractZip unpacks an archive into destDir and returns the number of
// files written. Entries that would escape destDir are rejected.
func ExtractZip(src, destDir string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, eris.Wrapf(err, "fetcher: open archive %s", src)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "fetcher: create %s", destDir)
	}

	written := 0
	for _, file := range r.File {
		target := filepath.Join(destDir, filepath.Clean(file.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return written, eris.Errorf("fetcher: archive entry %q escapes destination", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, eris.Wrapf(err, "fetcher: create directory %s", target)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, eris.Wrapf(err, "fetcher: create directory for %s", target)
		}
		if err := extractFile(file, target); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func extractFile(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return eris.Wrapf(err, "fetcher: open archive entry %s", file.Name)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", target)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "fetcher: extract %s", file.Name)
	}
	return nil
}
