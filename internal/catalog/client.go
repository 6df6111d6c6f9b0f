package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/failsafehttp"
	"github.com/subtitlarr/subtitlarr/internal/apperrors"
	"github.com/subtitlarr/subtitlarr/internal/client"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// Client is the slice of the media library's REST API used to resolve search
// references to catalog entities.
type Client interface {
	// Movie fetches a movie by its catalog ID.
	Movie(ctx context.Context, id int) (*models.Movie, error)

	// Series fetches a series by its catalog ID.
	Series(ctx context.Context, id int) (*models.Series, error)

	// Episode fetches an episode by its catalog ID.
	Episode(ctx context.Context, id int) (*models.Episode, error)

	// FindMovieByIMDB looks up a movie by IMDB identifier, e.g. "tt0133093".
	FindMovieByIMDB(ctx context.Context, imdbID string) (*models.Movie, error)

	// FindMovie looks up a movie by title, preferring exact matches.
	FindMovie(ctx context.Context, title string) (*models.Movie, error)

	// FindSeries looks up a series by title, preferring exact matches.
	FindSeries(ctx context.Context, title string) (*models.Series, error)

	// FindEpisode looks up one episode of a series by season and episode number.
	FindEpisode(ctx context.Context, seriesID, season, episode int) (*models.Episode, error)
}

// Retry tuning for catalog lookups. They are cheap idempotent GETs against a
// server on the same network, so a couple of quick retries cover restarts and
// transient upstream hiccups.
const (
	retryInitialDelay = 500 * time.Millisecond
	retryMaxDelay     = 5 * time.Second
	retryMaxAttempts  = 2
)

// errStatusNotFound marks a 404 from the catalog so each lookup can surface a
// typed not-found for the entity it asked about.
var errStatusNotFound = errors.New("catalog returned 404")

type httpCatalogClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a catalog client for the configured media library server.
// Transient transport failures and retryable status codes are retried with
// backoff; 404 is a result, not a failure, and is never retried.
func NewClient(cfg *config.Config) Client {
	retryPolicy := failsafehttp.RetryPolicyBuilder().
		WithBackoff(retryInitialDelay, retryMaxDelay).
		WithMaxRetries(retryMaxAttempts).
		Build()

	return &httpCatalogClient{
		httpClient: &http.Client{
			Timeout:   client.ParseTimeout(cfg.ClientTimeout, client.DefaultTimeout),
			Transport: failsafehttp.NewRoundTripper(http.DefaultTransport.(*http.Transport).Clone(), retryPolicy),
		},
		baseURL: cfg.Catalog.URL,
		apiKey:  cfg.Catalog.APIKey,
	}
}

// Movie fetches a movie by its catalog ID.
func (c *httpCatalogClient) Movie(ctx context.Context, id int) (*models.Movie, error) {
	var movie models.Movie
	err := c.getJSON(ctx, "/api/v1/movie/"+strconv.Itoa(id), nil, &movie)
	if errors.Is(err, errStatusNotFound) {
		return nil, apperrors.NewMovieNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Series fetches a series by its catalog ID.
func (c *httpCatalogClient) Series(ctx context.Context, id int) (*models.Series, error) {
	var series models.Series
	err := c.getJSON(ctx, "/api/v1/series/"+strconv.Itoa(id), nil, &series)
	if errors.Is(err, errStatusNotFound) {
		return nil, apperrors.NewSeriesNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return &series, nil
}

// Episode fetches an episode by its catalog ID.
func (c *httpCatalogClient) Episode(ctx context.Context, id int) (*models.Episode, error) {
	var episode models.Episode
	err := c.getJSON(ctx, "/api/v1/episode/"+strconv.Itoa(id), nil, &episode)
	if errors.Is(err, errStatusNotFound) {
		return nil, apperrors.NewEpisodeNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return &episode, nil
}

// FindMovieByIMDB looks up a movie by IMDB identifier.
func (c *httpCatalogClient) FindMovieByIMDB(ctx context.Context, imdbID string) (*models.Movie, error) {
	query := url.Values{}
	query.Set("imdb", imdbID)

	var movies []models.Movie
	err := c.getJSON(ctx, "/api/v1/movie/lookup", query, &movies)
	if errors.Is(err, errStatusNotFound) || (err == nil && len(movies) == 0) {
		return nil, apperrors.NewMovieNotFoundError(imdbID)
	}
	if err != nil {
		return nil, err
	}
	return &movies[0], nil
}

// FindMovie looks up a movie by title, preferring exact matches.
func (c *httpCatalogClient) FindMovie(ctx context.Context, title string) (*models.Movie, error) {
	query := url.Values{}
	query.Set("term", title)

	var movies []models.Movie
	err := c.getJSON(ctx, "/api/v1/movie/lookup", query, &movies)
	if errors.Is(err, errStatusNotFound) || (err == nil && len(movies) == 0) {
		return nil, apperrors.NewMovieNotFoundError(title)
	}
	if err != nil {
		return nil, err
	}

	for i := range movies {
		if strings.EqualFold(movies[i].Title, title) {
			return &movies[i], nil
		}
	}
	return &movies[0], nil
}

// FindSeries looks up a series by title, preferring exact matches.
func (c *httpCatalogClient) FindSeries(ctx context.Context, title string) (*models.Series, error) {
	query := url.Values{}
	query.Set("term", title)

	var series []models.Series
	err := c.getJSON(ctx, "/api/v1/series/lookup", query, &series)
	if errors.Is(err, errStatusNotFound) || (err == nil && len(series) == 0) {
		return nil, apperrors.NewSeriesNotFoundError(title)
	}
	if err != nil {
		return nil, err
	}

	for i := range series {
		if strings.EqualFold(series[i].Title, title) {
			return &series[i], nil
		}
	}
	return &series[0], nil
}

// FindEpisode looks up one episode of a series by season and episode number.
func (c *httpCatalogClient) FindEpisode(ctx context.Context, seriesID, season, episode int) (*models.Episode, error) {
	query := url.Values{}
	query.Set("seriesId", strconv.Itoa(seriesID))
	query.Set("season", strconv.Itoa(season))
	query.Set("episode", strconv.Itoa(episode))

	var episodes []models.Episode
	err := c.getJSON(ctx, "/api/v1/episode", query, &episodes)
	if errors.Is(err, errStatusNotFound) || (err == nil && len(episodes) == 0) {
		return nil, apperrors.NewEpisodeNotFoundError(fmt.Sprintf("s%02de%02d of series %d", season, episode, seriesID))
	}
	if err != nil {
		return nil, err
	}
	return &episodes[0], nil
}

// getJSON performs one authenticated GET against the catalog and decodes the
// JSON response into out. A 404 comes back as errStatusNotFound.
func (c *httpCatalogClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid catalog URL: %w", err)
	}
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errStatusNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewUpstreamStatusError(endpoint.String(), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
