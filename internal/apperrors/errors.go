package apperrors

import "fmt"

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewMovieNotFoundError creates a specific error for a missing catalog movie.
func NewMovieNotFoundError(id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: "movie",
		ID:       id,
	}
}

// NewSeriesNotFoundError creates a specific error for a missing catalog series.
func NewSeriesNotFoundError(id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: "series",
		ID:       id,
	}
}

// NewEpisodeNotFoundError creates a specific error for a missing catalog episode.
func NewEpisodeNotFoundError(id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: "episode",
		ID:       id,
	}
}

// ErrValidation is returned when request parameters cannot be resolved into
// a valid catalog reference.
type ErrValidation struct {
	Message string
}

// Error implements the error interface.
func (e *ErrValidation) Error() string {
	return e.Message
}

// Is allows for error checking with errors.Is().
func (e *ErrValidation) Is(target error) bool {
	_, ok := target.(*ErrValidation)
	return ok
}

// NewValidationError creates a new ErrValidation.
func NewValidationError(format string, args ...interface{}) *ErrValidation {
	return &ErrValidation{Message: fmt.Sprintf(format, args...)}
}

// ErrUpstreamStatus is returned when an upstream HTTP call answers with an
// unexpected status code.
type ErrUpstreamStatus struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *ErrUpstreamStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrUpstreamStatus) Is(target error) bool {
	_, ok := target.(*ErrUpstreamStatus)
	return ok
}

// NewUpstreamStatusError creates a new ErrUpstreamStatus.
func NewUpstreamStatusError(url string, statusCode int) *ErrUpstreamStatus {
	return &ErrUpstreamStatus{
		URL:        url,
		StatusCode: statusCode,
	}
}

// ErrNoSubtitleInArchive is returned when the requested episode subtitle is
// not found inside a downloaded archive.
type ErrNoSubtitleInArchive struct {
	Episode   int
	FileCount int
}

// Error implements the error interface.
func (e *ErrNoSubtitleInArchive) Error() string {
	if e.Episode > 0 {
		return fmt.Sprintf("episode %d not found in archive (searched %d files)", e.Episode, e.FileCount)
	}
	return fmt.Sprintf("no subtitle file found in archive (searched %d files)", e.FileCount)
}

// Is allows for error checking with errors.Is().
func (e *ErrNoSubtitleInArchive) Is(target error) bool {
	_, ok := target.(*ErrNoSubtitleInArchive)
	return ok
}
