package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/subtitlarr/subtitlarr/internal/catalog"
	"github.com/subtitlarr/subtitlarr/internal/language"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

// handleSearch resolves the requested media item to a search key and runs a
// coordinated subtitle search for it. A timed-out search is not an error: the
// response then carries searchInProgress=true and an empty candidate list.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ref, err := parseSearchRef(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	timeout, err := parseTimeoutSeconds(r.URL.Query().Get("timeout"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := s.resolver.Resolve(r.Context(), ref)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	requested := language.Requested(r.URL.Query().Get("language"), r.URL.Query().Get("languageName"))

	result, err := s.coordinator.Search(r.Context(), key, requested, timeout)
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// handleDownload fetches one subtitle by provider token and streams it back
// as an attachment. For season packs an episode parameter selects which
// episode to extract.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	provider := strings.TrimSpace(q.Get("provider"))
	if provider == "" {
		RespondError(w, http.StatusBadRequest, "missing provider parameter")
		return
	}
	token := strings.TrimSpace(q.Get("token"))
	if token == "" {
		RespondError(w, http.StatusBadRequest, "missing token parameter")
		return
	}
	episode, err := parseOptionalInt(q.Get("episode"))
	if err != nil || episode < 0 {
		RespondError(w, http.StatusBadRequest, "invalid episode parameter")
		return
	}

	result, err := s.downloader.DownloadSubtitle(r.Context(), models.DownloadRequest{
		Provider: provider,
		Token:    token,
		Episode:  episode,
	})
	if err != nil {
		s.respondDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if _, err := w.Write(result.Content); err != nil {
		s.logger.Debug().Err(err).Str("token", token).Msg("Failed to write subtitle response")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		RespondError(w, status, "internal server error")
	case http.StatusBadGateway:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream failure")
		RespondError(w, status, err.Error())
	default:
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
		RespondError(w, status, err.Error())
	}
}

// parseSearchRef reads the identification parameters of a search request.
// Which combination of them is sufficient is the resolver's decision; this
// only rejects values that fail to parse.
func parseSearchRef(r *http.Request) (catalog.Ref, error) {
	q := r.URL.Query()

	ref := catalog.Ref{
		Kind:   models.ParseMediaKind(q.Get("type")),
		IMDBID: strings.TrimSpace(q.Get("imdb")),
		Title:  strings.TrimSpace(q.Get("title")),
	}

	var err error
	if ref.ID, err = parseOptionalInt(q.Get("id")); err != nil {
		return catalog.Ref{}, errors.New("invalid id parameter")
	}
	if ref.Season, err = parseOptionalInt(q.Get("season")); err != nil {
		return catalog.Ref{}, errors.New("invalid season parameter")
	}
	if ref.Episode, err = parseOptionalInt(q.Get("episode")); err != nil {
		return catalog.Ref{}, errors.New("invalid episode parameter")
	}

	return ref, nil
}

// parseTimeoutSeconds converts the timeout query parameter, given in whole
// seconds, to a duration. Absent, zero and negative all mean waiting for the
// search without an early return.
func parseTimeoutSeconds(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}

	seconds, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.New("invalid timeout parameter")
	}

	return time.Duration(seconds) * time.Second, nil
}

func parseOptionalInt(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}
