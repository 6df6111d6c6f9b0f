package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/subtitlarr/subtitlarr/internal/apperrors"
	"github.com/subtitlarr/subtitlarr/internal/cache"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// Ref is an unresolved reference to a catalog entity as supplied by an API
// caller: the kind plus whichever identifying detail the caller has.
type Ref struct {
	Kind    models.MediaKind
	ID      int    // Catalog numeric ID, 0 when absent
	IMDBID  string // IMDB identifier, movies only
	Title   string
	Season  int
	Episode int
}

// Resolver turns catalog references into search keys. Catalog entities
// fetched on the way are cached under "catalog:"-prefixed keys so repeated
// lookups within the TTL do not hit the library server.
type Resolver struct {
	client Client
	cache  cache.Cache
	ttl    time.Duration
}

// NewResolver creates a resolver on top of the given catalog client. The
// cache may be nil, in which case every resolution queries the catalog.
func NewResolver(catalogClient Client, resultCache cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{
		client: catalogClient,
		cache:  resultCache,
		ttl:    ttl,
	}
}

// Resolve maps a reference to the search key of the catalog entity it names.
// Unknown entities surface as apperrors.ErrNotFound; references missing the
// details needed for their kind surface as apperrors.ErrValidation.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (models.SearchKey, error) {
	switch ref.Kind {
	case models.MediaKindMovie:
		return r.resolveMovie(ctx, ref)
	case models.MediaKindEpisode:
		return r.resolveEpisode(ctx, ref)
	default:
		return models.SearchKey{}, apperrors.NewValidationError("unsupported media kind %q", ref.Kind.String())
	}
}

func (r *Resolver) resolveMovie(ctx context.Context, ref Ref) (models.SearchKey, error) {
	var (
		movie *models.Movie
		err   error
	)

	switch {
	case ref.ID > 0:
		movie, err = resolveCached(ctx, r, "catalog:movie:"+strconv.Itoa(ref.ID), func(ctx context.Context) (*models.Movie, error) {
			return r.client.Movie(ctx, ref.ID)
		})
	case ref.IMDBID != "":
		movie, err = resolveCached(ctx, r, "catalog:movie:imdb:"+strings.ToLower(ref.IMDBID), func(ctx context.Context) (*models.Movie, error) {
			return r.client.FindMovieByIMDB(ctx, ref.IMDBID)
		})
	case ref.Title != "":
		movie, err = resolveCached(ctx, r, "catalog:movie:title:"+strings.ToLower(ref.Title), func(ctx context.Context) (*models.Movie, error) {
			return r.client.FindMovie(ctx, ref.Title)
		})
	default:
		return models.SearchKey{}, apperrors.NewValidationError("movie reference needs an id, imdb id, or title")
	}

	if err != nil {
		return models.SearchKey{}, err
	}

	logResolved(ref, models.NewMovieKey(movie.ID))
	return models.NewMovieKey(movie.ID), nil
}

func (r *Resolver) resolveEpisode(ctx context.Context, ref Ref) (models.SearchKey, error) {
	switch {
	case ref.ID > 0:
		episode, err := resolveCached(ctx, r, "catalog:episode:"+strconv.Itoa(ref.ID), func(ctx context.Context) (*models.Episode, error) {
			return r.client.Episode(ctx, ref.ID)
		})
		if err != nil {
			return models.SearchKey{}, err
		}

		logResolved(ref, models.NewEpisodeKey(episode.ID))
		return models.NewEpisodeKey(episode.ID), nil

	case ref.Title != "" && ref.Season > 0 && ref.Episode > 0:
		series, err := resolveCached(ctx, r, "catalog:series:title:"+strings.ToLower(ref.Title), func(ctx context.Context) (*models.Series, error) {
			return r.client.FindSeries(ctx, ref.Title)
		})
		if err != nil {
			return models.SearchKey{}, err
		}

		episodeKey := fmt.Sprintf("catalog:episode:%d:%d:%d", series.ID, ref.Season, ref.Episode)
		episode, err := resolveCached(ctx, r, episodeKey, func(ctx context.Context) (*models.Episode, error) {
			return r.client.FindEpisode(ctx, series.ID, ref.Season, ref.Episode)
		})
		if err != nil {
			return models.SearchKey{}, err
		}

		logResolved(ref, models.NewEpisodeKey(episode.ID))
		return models.NewEpisodeKey(episode.ID), nil

	case ref.IMDBID != "":
		return models.SearchKey{}, apperrors.NewValidationError("imdb lookup is supported for movies only")

	default:
		return models.SearchKey{}, apperrors.NewValidationError("episode reference needs an id, or a title with season and episode")
	}
}

// resolveCached serves one catalog entity from the cache, falling back to the
// given fetch and storing its result. Undecodable cached payloads are treated
// as misses; fetch failures are never cached.
func resolveCached[T any](ctx context.Context, r *Resolver, key string, fetch func(context.Context) (*T, error)) (*T, error) {
	if r.cache != nil {
		if data, ok := r.cache.Get(key); ok {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return &v, nil
			}
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(v); err == nil {
			r.cache.Set(key, data, r.ttl)
		}
	}
	return v, nil
}

func logResolved(ref Ref, key models.SearchKey) {
	config.GetLogger().Debug().
		Str("kind", ref.Kind.String()).
		Str("key", key.String()).
		Msg("Resolved search reference")
}
