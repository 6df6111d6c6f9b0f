package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/subtitlarr/subtitlarr/internal/apperrors"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/language"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// searchCandidate is the wire form of one candidate in the upstream search response
type searchCandidate struct {
	Provider        string  `json:"provider"`
	Token           string  `json:"token"`
	Language        string  `json:"language"`
	Score           float64 `json:"score"`
	HearingImpaired bool    `json:"hearing_impaired"`
	Forced          bool    `json:"forced"`
	Format          string  `json:"format"`
	Release         string  `json:"release"`
}

// Search runs one multi-provider query for the given key. The call is slow
// (the upstream fans out to its providers and waits for stragglers) and is
// never retried here; the coordinator decides what a failure means.
func (c *client) Search(ctx context.Context, key models.SearchKey) ([]models.SubtitleCandidate, error) {
	logger := config.GetLogger()
	logger.Info().Str("key", key.String()).Msg("Searching upstream providers")

	endpoint, err := c.buildSearchURL(key)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.searchHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamStatusError(endpoint, resp.StatusCode)
	}

	var payload []searchCandidate
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	candidates := make([]models.SubtitleCandidate, 0, len(payload))
	for _, p := range payload {
		candidates = append(candidates, models.SubtitleCandidate{
			Provider:        p.Provider,
			DownloadToken:   p.Token,
			Language:        p.Language,
			Score:           p.Score,
			HearingImpaired: p.HearingImpaired,
			Forced:          p.Forced,
			Format:          language.NormalizeFormat(p.Format),
			Release:         htmlToText(p.Release),
		})
	}

	logger.Info().Str("key", key.String()).Int("candidates", len(candidates)).Msg("Upstream search finished")
	return candidates, nil
}

func (c *client) buildSearchURL(key models.SearchKey) (string, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/api/search"
	query := baseURL.Query()
	query.Set("type", key.Kind.String())
	query.Set("id", strconv.Itoa(key.ID))
	baseURL.RawQuery = query.Encode()

	return baseURL.String(), nil
}

// htmlToText reduces a release description, which may carry markup lifted
// from provider pages, to single-line plain text.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
