package models

import "strings"

// MediaKind identifies the kind of catalog item a search or lookup refers to
type MediaKind int

const (
	MediaKindUnknown MediaKind = iota
	MediaKindMovie
	MediaKindSeries
	MediaKindEpisode
)

// String returns the string representation of the media kind
func (k MediaKind) String() string {
	switch k {
	case MediaKindMovie:
		return "movie"
	case MediaKindSeries:
		return "series"
	case MediaKindEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// ParseMediaKind converts a kind string to a MediaKind enum
func ParseMediaKind(kindStr string) MediaKind {
	switch strings.ToLower(kindStr) {
	case "movie":
		return MediaKindMovie
	case "series":
		return MediaKindSeries
	case "episode":
		return MediaKindEpisode
	default:
		return MediaKindUnknown
	}
}

// MarshalJSON implements json.Marshaler interface
func (k MediaKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler interface
func (k *MediaKind) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	*k = ParseMediaKind(str)
	return nil
}
