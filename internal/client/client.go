package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/models"
	"github.com/subtitlarr/subtitlarr/internal/services"
)

// Default ceilings for the two upstream paths. Provider searches fan out
// across many sources upstream and routinely run for minutes, so they get a
// far higher ceiling than ordinary requests.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultSearchTimeout = 30 * time.Minute
)

// SearchClient is the slice of the upstream surface the search coordinator
// consumes: one expensive multi-provider query per call, no internal retry.
type SearchClient interface {
	Search(ctx context.Context, key models.SearchKey) ([]models.SubtitleCandidate, error)
}

// Client defines the interface for talking to the upstream subtitle service
type Client interface {
	SearchClient

	// DownloadSubtitle fetches a subtitle file by provider token, optionally
	// extracting a specific episode from a season pack.
	DownloadSubtitle(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error)

	// Close releases any resources held by the client (e.g., the archive cache).
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient         *http.Client
	searchHTTPClient   *http.Client
	baseURL            string
	subtitleDownloader services.SubtitleDownloader
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config) Client {
	httpClient := BuildHTTPClient(cfg, ParseTimeout(cfg.ClientTimeout, DefaultTimeout))
	searchHTTPClient := BuildHTTPClient(cfg, ParseTimeout(cfg.SearchTimeout, DefaultSearchTimeout))

	return &client{
		httpClient:         httpClient,
		searchHTTPClient:   searchHTTPClient,
		baseURL:            cfg.SearchURL,
		subtitleDownloader: services.NewSubtitleDownloader(httpClient),
	}
}

// BuildHTTPClient assembles an HTTP client with the given overall timeout, the
// optional egress proxy from config, and transparent response decompression
// (gzip, brotli, zstd).
func BuildHTTPClient(cfg *config.Config, timeout time.Duration) *http.Client {
	// Set up base transport with optional proxy
	// Clone DefaultTransport to preserve all its settings (timeouts, connection pooling, HTTP/2, etc.)
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		proxyURL, err := url.Parse(cfg.ProxyConnectionString)
		if err != nil {
			// Log error but continue without proxy
			logger := config.GetLogger()
			logger.Warn().Err(err).Str("proxy", cfg.ProxyConnectionString).Msg("Invalid proxy URL, continuing without proxy")
		} else {
			// Override only the Proxy field
			baseTransport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: newCompressionTransport(baseTransport),
	}
}

// ParseTimeout parses a Go duration string, falling back when it is empty or
// invalid.
func ParseTimeout(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		logger := config.GetLogger()
		logger.Warn().Err(err).Str("timeout", s).Msg("Invalid timeout duration, using default")
		return fallback
	}

	return d
}

// Close releases any resources held by the client, such as the archive cache.
func (c *client) Close() error {
	return c.subtitleDownloader.Close()
}
