package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPFetcher downloads vintage archives over HTTP(S).
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher. bytesPerSec of zero disables rate
// limiting.
func NewHTTPFetcher(timeout time.Duration, bytesPerSec int) *HTTPFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(bytesPerSec),
	}
}

// DownloadToFile fetches the URL into a local file. Returns bytes written.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: build request")
	}

	zap.L().Debug("fetcher: http downloading", zap.String("url", rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: http get")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("fetcher: http get %s: status %d", rawURL, resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close()

	n, err := io.Copy(file, limitReader(ctx, resp.Body, f.limiter))
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
