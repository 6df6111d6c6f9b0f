package models

// DownloadRequest represents a request to download a specific subtitle
type DownloadRequest struct {
	Provider string // Provider that produced the candidate
	Token    string // The candidate's opaque download token
	Episode  int    // Episode number to extract from a season pack (0 = download entire file)
}

// DownloadResult represents the result of a subtitle download
type DownloadResult struct {
	Filename    string // Name of the subtitle file
	Content     []byte // Content of the subtitle file, normalized to UTF-8 when textual
	ContentType string // MIME type (e.g., "application/x-subrip", "application/zip")
}
