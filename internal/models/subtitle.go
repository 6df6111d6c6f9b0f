package models

// SubtitleCandidate represents one subtitle found by the upstream search
// service. Candidates are immutable once produced; the coordinator caches
// them raw and filters per request.
type SubtitleCandidate struct {
	Provider        string  `json:"provider"`        // Name of the provider that found the subtitle
	DownloadToken   string  `json:"downloadToken"`   // Opaque provider-specific token used to download it
	Language        string  `json:"language"`        // Language code as reported by the provider
	Score           float64 `json:"score"`           // Match score against the media item
	HearingImpaired bool    `json:"hearingImpaired"` // Subtitle includes hearing-impaired annotations
	Forced          bool    `json:"forced"`          // Forced subtitle (foreign parts only)
	Format          string  `json:"format"`          // Normalized subtitle format, e.g. "SRT"
	Release         string  `json:"release"`         // Free-text release description
}

// SearchResult represents the outcome of a coordinated subtitle search.
// At most one of FromCache and SearchInProgress is set; Candidates is empty
// whenever SearchInProgress is true.
type SearchResult struct {
	Candidates       []SubtitleCandidate `json:"candidates"`
	FromCache        bool                `json:"fromCache"`
	SearchInProgress bool                `json:"searchInProgress"`
}
