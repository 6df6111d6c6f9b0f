package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/subtitlarr/subtitlarr/internal/models"
)

// DownloadSubtitle downloads a subtitle file, with support for extracting
// specific episodes from season packs. The download URL is derived from the
// provider name and its opaque download token.
func (c *client) DownloadSubtitle(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error) {
	downloadURL, err := c.buildDownloadURL(req)
	if err != nil {
		return nil, err
	}

	return c.subtitleDownloader.DownloadSubtitle(ctx, downloadURL, req)
}

func (c *client) buildDownloadURL(req models.DownloadRequest) (string, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/api/download"
	query := baseURL.Query()
	query.Set("provider", req.Provider)
	query.Set("token", req.Token)
	baseURL.RawQuery = query.Encode()

	return baseURL.String(), nil
}
