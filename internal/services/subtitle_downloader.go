package services

import (
	"context"

	"github.com/subtitlarr/subtitlarr/internal/models"
)

// SubtitleDownloader defines the interface for downloading subtitles
type SubtitleDownloader interface {
	// DownloadSubtitle downloads a subtitle file, unpacking archives and picking
	// the best subtitle they contain, optionally narrowed to a season pack episode
	DownloadSubtitle(ctx context.Context, downloadURL string, req models.DownloadRequest) (*models.DownloadResult, error)

	// Close releases resources held by the downloader, such as the archive cache
	Close() error
}
