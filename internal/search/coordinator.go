// Package search coordinates subtitle searches against the upstream
// multi-provider service. Upstream calls are expensive (minutes, not
// milliseconds), so the coordinator deduplicates concurrent requests for the
// same media item onto a single call, caches successful results, and lets
// impatient callers hand a running call off to the background instead of
// cancelling it.
package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/subtitlarr/subtitlarr/internal/cache"
	"github.com/subtitlarr/subtitlarr/internal/client"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/language"
	"github.com/subtitlarr/subtitlarr/internal/metrics"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// Search outcome labels reported to metrics.SearchesTotal.
const (
	outcomeCacheHit  = "cache_hit"
	outcomeCompleted = "completed"
	outcomeJoined    = "joined"
	outcomeHandedOff = "handed_off"
	outcomeError     = "error"
)

// inflight is one running upstream search, shared by every caller that asked
// for the same key while it ran. candidates and err are written once by the
// upstream goroutine before done is closed; waiters read them only after
// observing the close.
type inflight struct {
	done       chan struct{}
	candidates []models.SubtitleCandidate
	err        error
}

// Coordinator deduplicates, caches, and time-bounds subtitle searches.
// All methods are safe for concurrent use.
type Coordinator struct {
	upstream  client.SearchClient
	cache     cache.Cache
	searchTTL time.Duration

	mu       sync.Mutex
	inFlight map[models.SearchKey]*inflight
}

// NewCoordinator builds a coordinator around an upstream search client and a
// shared result cache. resultCache may be nil, which disables caching but
// keeps request coalescing intact. A non-positive searchTTL falls back to the
// default result lifetime.
func NewCoordinator(upstream client.SearchClient, resultCache cache.Cache, searchTTL time.Duration) *Coordinator {
	if searchTTL <= 0 {
		searchTTL = config.DefaultSearchTTL
	}

	return &Coordinator{
		upstream:  upstream,
		cache:     resultCache,
		searchTTL: searchTTL,
		inFlight:  make(map[models.SearchKey]*inflight),
	}
}

// Search returns subtitle candidates for key, filtered to requestedLanguage.
//
// A live cache entry is served immediately with FromCache set. Otherwise the
// caller either starts the upstream call or joins one already running for the
// same key; either way exactly one upstream call runs per key at a time.
//
// timeout bounds only how long the caller that started the call waits for it.
// Zero or negative waits indefinitely, and callers that joined an existing
// call always wait for it regardless of their own timeout. When the timer
// fires first the caller gets an empty result with SearchInProgress set while
// the call keeps running in the background; its result lands in the cache for
// later requests.
//
// Cancelling ctx abandons the wait, never the upstream call.
func (c *Coordinator) Search(ctx context.Context, key models.SearchKey, requestedLanguage string, timeout time.Duration) (*models.SearchResult, error) {
	if candidates, ok := c.cachedCandidates(key); ok {
		metrics.SearchesTotal.WithLabelValues(outcomeCacheHit).Inc()
		config.GetLogger().Debug().
			Str("key", key.String()).
			Int("candidates", len(candidates)).
			Msg("Search served from cache")
		return &models.SearchResult{
			Candidates: language.Filter(candidates, requestedLanguage),
			FromCache:  true,
		}, nil
	}

	inf, created := c.joinOrCreate(ctx, key)
	if !created {
		return c.awaitJoined(ctx, inf, requestedLanguage)
	}

	return c.awaitCreated(ctx, key, inf, requestedLanguage, timeout)
}

// joinOrCreate returns the in-flight search for key, creating and starting
// one when none exists. The lookup and the insert happen under a single lock
// acquisition so two concurrent callers can never both create.
func (c *Coordinator) joinOrCreate(ctx context.Context, key models.SearchKey) (*inflight, bool) {
	c.mu.Lock()
	if inf, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		return inf, false
	}

	inf := &inflight{done: make(chan struct{})}
	c.inFlight[key] = inf
	c.mu.Unlock()

	// The call must outlive the request that started it, so it runs on a
	// context stripped of the caller's cancellation.
	go c.runUpstream(context.WithoutCancel(ctx), key, inf)

	return inf, true
}

// runUpstream performs the single upstream call backing an in-flight search.
// It only produces the result; committing to the cache and removing the
// in-flight entry belong to the creator or its background continuation.
func (c *Coordinator) runUpstream(ctx context.Context, key models.SearchKey, inf *inflight) {
	metrics.SearchesInFlight.Inc()
	start := time.Now()

	inf.candidates, inf.err = c.upstream.Search(ctx, key)

	metrics.UpstreamSearchDuration.Observe(time.Since(start).Seconds())
	metrics.SearchesInFlight.Dec()
	close(inf.done)
}

// awaitJoined waits for a call some earlier request started. Joiners carry no
// bookkeeping duties and no timeout of their own; the per-caller timeout is a
// budget for the request that started the call, not a property of the shared
// call.
func (c *Coordinator) awaitJoined(ctx context.Context, inf *inflight, requestedLanguage string) (*models.SearchResult, error) {
	select {
	case <-inf.done:
	case <-ctx.Done():
		metrics.SearchesTotal.WithLabelValues(outcomeError).Inc()
		return nil, ctx.Err()
	}

	if inf.err != nil {
		metrics.SearchesTotal.WithLabelValues(outcomeError).Inc()
		return nil, inf.err
	}

	metrics.SearchesTotal.WithLabelValues(outcomeJoined).Inc()
	return &models.SearchResult{
		Candidates: language.Filter(inf.candidates, requestedLanguage),
	}, nil
}

// awaitCreated waits for the call this request started, racing it against the
// caller's timeout when one is set. If the caller stops waiting, completion
// duties transfer to a background continuation and the upstream call keeps
// running.
func (c *Coordinator) awaitCreated(ctx context.Context, key models.SearchKey, inf *inflight, requestedLanguage string, timeout time.Duration) (*models.SearchResult, error) {
	// A nil channel never fires, so no timer means waiting indefinitely.
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-inf.done:
		return c.settle(key, inf, requestedLanguage)

	case <-timeoutC:
		c.continueInBackground(key, inf)
		metrics.SearchesTotal.WithLabelValues(outcomeHandedOff).Inc()
		config.GetLogger().Info().
			Str("key", key.String()).
			Dur("timeout", timeout).
			Msg("Upstream search still running, handing off to background")
		return &models.SearchResult{
			Candidates:       []models.SubtitleCandidate{},
			SearchInProgress: true,
		}, nil

	case <-ctx.Done():
		c.continueInBackground(key, inf)
		metrics.SearchesTotal.WithLabelValues(outcomeError).Inc()
		return nil, ctx.Err()
	}
}

// settle finishes a call whose creator was still waiting when it completed.
// On success the result is committed to the cache strictly before the
// in-flight entry is removed, so a concurrent caller that finds the entry
// gone is guaranteed to find the cache populated. On failure the entry is
// removed without caching so the next caller retries instead of joining a
// dead call.
func (c *Coordinator) settle(key models.SearchKey, inf *inflight, requestedLanguage string) (*models.SearchResult, error) {
	if inf.err != nil {
		c.removeInFlight(key)
		metrics.SearchesTotal.WithLabelValues(outcomeError).Inc()
		return nil, inf.err
	}

	c.commitToCache(key, inf.candidates)
	c.removeInFlight(key)

	metrics.SearchesTotal.WithLabelValues(outcomeCompleted).Inc()
	return &models.SearchResult{
		Candidates: language.Filter(inf.candidates, requestedLanguage),
	}, nil
}

// continueInBackground takes over the creator's completion duties after the
// caller stopped waiting. Once the upstream call finishes, a success is
// committed to the cache and a failure only logged; either way the in-flight
// entry is removed afterwards.
func (c *Coordinator) continueInBackground(key models.SearchKey, inf *inflight) {
	go func() {
		<-inf.done

		if inf.err != nil {
			c.removeInFlight(key)
			config.GetLogger().Error().
				Err(inf.err).
				Str("key", key.String()).
				Msg("Background search failed")
			sentry.CaptureException(inf.err)
			return
		}

		c.commitToCache(key, inf.candidates)
		c.removeInFlight(key)
		config.GetLogger().Info().
			Str("key", key.String()).
			Int("candidates", len(inf.candidates)).
			Msg("Background search finished")
	}()
}

// cachedCandidates loads and decodes the cached candidate list for key. A
// backend miss and an undecodable payload both count as a plain miss;
// corruption must never fail a search.
func (c *Coordinator) cachedCandidates(key models.SearchKey) ([]models.SubtitleCandidate, bool) {
	if c.cache == nil {
		return nil, false
	}

	raw, ok := c.cache.Get(cacheKey(key))
	if !ok {
		return nil, false
	}

	var candidates []models.SubtitleCandidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		config.GetLogger().Warn().
			Err(err).
			Str("key", key.String()).
			Msg("Discarding undecodable cached search result")
		return nil, false
	}

	return candidates, true
}

// commitToCache stores a successful result under the search key space. Only
// successes reach here; a failed search leaves any previous entry untouched.
func (c *Coordinator) commitToCache(key models.SearchKey, candidates []models.SubtitleCandidate) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal(candidates)
	if err != nil {
		config.GetLogger().Error().
			Err(err).
			Str("key", key.String()).
			Msg("Failed to encode search result for caching")
		return
	}

	c.cache.Set(cacheKey(key), raw, c.searchTTL)
}

func (c *Coordinator) removeInFlight(key models.SearchKey) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

// cacheKey namespaces search results away from the catalog entries that may
// share the same cache backend.
func cacheKey(key models.SearchKey) string {
	return "search:" + key.String()
}
