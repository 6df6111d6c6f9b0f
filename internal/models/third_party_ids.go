package models

// ThirdPartyIds represents cross-reference identifiers from external
// metadata databases, used to resolve externally supplied IDs to catalog items
type ThirdPartyIds struct {
	IMDBID   string `json:"imdbId,omitempty"`   // IMDB identifier, e.g. "tt0133093"
	TVDBID   int    `json:"tvdbId,omitempty"`   // TVDB identifier
	TMDBID   int    `json:"tmdbId,omitempty"`   // TMDB identifier
	TVMazeID int    `json:"tvMazeId,omitempty"` // TVMaze identifier
}
