package httpfetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/benin-demographics-etl/internal/domain"
	"github.com/couchcryptid/benin-demographics-etl/internal/observability"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 512

// Client implements domain.Fetcher and domain.Downloader over plain HTTP GETs.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a fetch client. timeout bounds connecting and waiting
// for the response headers; reading the body is bounded only by ctx, so a
// large raster download is never cut short by a slow link.
func NewClient(timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch returns the whole response body of rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, source, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrTransport, rawURL, err)
	}
	c.metrics.FetchRequests.WithLabelValues(source, "success").Inc()
	c.metrics.FetchBytes.WithLabelValues(source).Add(float64(len(body)))
	c.logger.Debug("fetched", "url", rawURL, "bytes", len(body))
	return body, nil
}

// Download streams rawURL into a temporary file next to dest and renames it
// into place once the body has been fully received.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, source, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create download dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return 0, fmt.Errorf("%w: download %s: %v", domain.ErrTransport, rawURL, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("move download into place: %w", err)
	}

	c.metrics.FetchRequests.WithLabelValues(source, "success").Inc()
	c.metrics.FetchBytes.WithLabelValues(source).Add(float64(n))
	c.logger.Info("downloaded", "url", rawURL, "path", dest, "bytes", n)
	return n, nil
}

// doRequest issues the GET and checks the status. On success the caller owns
// the response body.
func (c *Client) doRequest(ctx context.Context, rawURL string) (*http.Response, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse url %q: %v", domain.ErrConfig, rawURL, err)
	}
	source := u.Host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, source, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, source, fmt.Errorf("%w: get %s: %v", domain.ErrTransport, rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.metrics.FetchRequests.WithLabelValues(source, "error").Inc()
		return nil, source, fmt.Errorf("%w: get %s: status %d: %s", domain.ErrTransport, rawURL, resp.StatusCode, body)
	}
	return resp, source, nil
}
