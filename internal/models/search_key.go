package models

import "fmt"

// SearchKey identifies a logical search target: an entity kind plus the
// catalog's internal numeric ID. Two requests carrying the same key refer to
// the same upstream search and must share its result.
//
// The zero value is not a valid key; build one with NewMovieKey or
// NewEpisodeKey. SearchKey is comparable and safe to use as a map key.
type SearchKey struct {
	Kind MediaKind
	ID   int
}

// NewMovieKey creates a SearchKey for a movie
func NewMovieKey(id int) SearchKey {
	return SearchKey{Kind: MediaKindMovie, ID: id}
}

// NewEpisodeKey creates a SearchKey for an episode
func NewEpisodeKey(id int) SearchKey {
	return SearchKey{Kind: MediaKindEpisode, ID: id}
}

// String renders the key in its canonical "kind:id" form, e.g. "movie:42".
// This form is also used as the cache key for search results.
func (k SearchKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Valid reports whether the key names a searchable entity
func (k SearchKey) Valid() bool {
	return (k.Kind == MediaKindMovie || k.Kind == MediaKindEpisode) && k.ID > 0
}
