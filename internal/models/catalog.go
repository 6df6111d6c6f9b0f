package models

// Movie represents a movie record from the media library catalog
type Movie struct {
	ID    int           `json:"id"`
	Title string        `json:"title"`
	Year  int           `json:"year"`
	Ids   ThirdPartyIds `json:"ids"`
}

// Series represents a TV series record from the media library catalog
type Series struct {
	ID    int           `json:"id"`
	Title string        `json:"title"`
	Year  int           `json:"year"`
	Ids   ThirdPartyIds `json:"ids"`
}

// Episode represents a single episode of a series
type Episode struct {
	ID       int    `json:"id"`
	SeriesID int    `json:"seriesId"`
	Season   int    `json:"season"`
	Episode  int    `json:"episode"`
	Title    string `json:"title"`
}
