package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nwaples/rardecode/v2"
	"github.com/subtitlarr/subtitlarr/internal/apperrors"
	"github.com/subtitlarr/subtitlarr/internal/config"
	"github.com/subtitlarr/subtitlarr/internal/metrics"
	"github.com/subtitlarr/subtitlarr/internal/models"
)

const (
	// maxDownloadSize caps the bytes read from the upstream for one download.
	maxDownloadSize = 150 * 1024 * 1024

	// maxUncompressedFileSize caps a single file inflated from an archive.
	maxUncompressedFileSize = 20 * 1024 * 1024

	// maxTotalUncompressedSize caps the combined declared size of an archive.
	maxTotalUncompressedSize = 500 * 1024 * 1024
)

// Archive cache sizing applied when the config leaves it unset.
const (
	defaultArchiveCacheSize = 100
	defaultArchiveCacheTTL  = time.Hour
)

// subtitleExtensions orders subtitle file extensions by preference when an
// archive offers several candidates for the same request.
var subtitleExtensions = []string{".srt", ".ass", ".ssa", ".vtt", ".sub"}

// DefaultSubtitleDownloader implements SubtitleDownloader with an expirable
// archive cache, so a season pack fetched once serves subsequent episode
// extractions without a second upstream download.
type DefaultSubtitleDownloader struct {
	httpClient   *http.Client
	archiveCache *lru.LRU[string, []byte]
}

// NewSubtitleDownloader creates a subtitle downloader backed by an in-memory
// LRU archive cache sized from the loaded configuration.
func NewSubtitleDownloader(httpClient *http.Client) SubtitleDownloader {
	size, ttl := resolveArchiveCacheConfig(config.GetConfig())

	return &DefaultSubtitleDownloader{
		httpClient:   httpClient,
		archiveCache: lru.NewLRU[string, []byte](size, nil, ttl),
	}
}

// resolveArchiveCacheConfig returns the archive cache sizing from config,
// falling back to defaults when config is absent or holds unusable values.
func resolveArchiveCacheConfig(cfg *config.Config) (int, time.Duration) {
	size := defaultArchiveCacheSize
	ttl := defaultArchiveCacheTTL

	if cfg == nil {
		return size, ttl
	}
	if cfg.Cache.ArchiveSize > 0 {
		size = cfg.Cache.ArchiveSize
	}
	if cfg.Cache.ArchiveTTL != "" {
		if parsed, err := time.ParseDuration(cfg.Cache.ArchiveTTL); err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	return size, ttl
}

// DownloadSubtitle downloads a subtitle file, unpacking ZIP and RAR archives
// and picking the best subtitle file they contain.
func (d *DefaultSubtitleDownloader) DownloadSubtitle(ctx context.Context, downloadURL string, req models.DownloadRequest) (*models.DownloadResult, error) {
	result, err := d.downloadSubtitle(ctx, downloadURL, req)
	if err != nil {
		metrics.SubtitleDownloadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SubtitleDownloadsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (d *DefaultSubtitleDownloader) downloadSubtitle(ctx context.Context, downloadURL string, req models.DownloadRequest) (*models.DownloadResult, error) {
	logger := config.GetLogger()
	logger.Info().
		Str("url", downloadURL).
		Str("provider", req.Provider).
		Int("episode", req.Episode).
		Msg("Downloading subtitle")

	content, contentType, err := d.downloadFile(ctx, downloadURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitle: %w", err)
	}

	switch {
	case isZipContentType(contentType) || isZipFile(content):
		logger.Info().
			Int("episode", req.Episode).
			Int("archiveSize", len(content)).
			Msg("Extracting subtitle from ZIP archive")

		result, err := extractFromZip(content, req.Episode)
		if err != nil {
			return nil, err
		}

		logger.Info().
			Str("filename", result.Filename).
			Int("size", len(result.Content)).
			Msg("Extracted subtitle from ZIP archive")
		return result, nil

	case isRarContentType(contentType) || isRarFile(content):
		logger.Info().
			Int("episode", req.Episode).
			Int("archiveSize", len(content)).
			Msg("Extracting subtitle from RAR archive")

		result, err := extractFromRar(content, req.Episode)
		if err != nil {
			return nil, err
		}

		logger.Info().
			Str("filename", result.Filename).
			Int("size", len(result.Content)).
			Msg("Extracted subtitle from RAR archive")
		return result, nil
	}

	// Bare subtitle file
	if isTextSubtitleContentType(contentType) {
		content = convertToUTF8(content)
	}

	logger.Info().
		Str("contentType", contentType).
		Int("size", len(content)).
		Msg("Returning downloaded file as-is")

	return &models.DownloadResult{
		Filename:    generateFilename(req.Token, contentType),
		Content:     content,
		ContentType: contentType,
	}, nil
}

// downloadFile downloads a file from the given URL, caching archive payloads.
func (d *DefaultSubtitleDownloader) downloadFile(ctx context.Context, url string) ([]byte, string, error) {
	logger := config.GetLogger()

	if content, found := d.archiveCache.Get(url); found {
		logger.Debug().
			Str("url", url).
			Int("size", len(content)).
			Msg("Retrieved archive from cache")
		return content, archiveContentType(content), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", apperrors.NewNotFoundError("subtitle", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", apperrors.NewUpstreamStatusError(url, resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if len(content) > maxDownloadSize {
		return nil, "", fmt.Errorf("download size exceeds limit of %d bytes", maxDownloadSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if isZipContentType(contentType) || isZipFile(content) ||
		isRarContentType(contentType) || isRarFile(content) {
		d.archiveCache.Add(url, content)
		logger.Debug().
			Str("url", url).
			Int("size", len(content)).
			Msg("Cached archive")
	}

	return content, contentType, nil
}

// Close releases the archive cache.
func (d *DefaultSubtitleDownloader) Close() error {
	d.archiveCache.Purge()
	return nil
}

// extractFromZip picks and inflates the best subtitle file from a ZIP archive.
func extractFromZip(zipContent []byte, episode int) (*models.DownloadResult, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(zipContent), int64(len(zipContent)))
	if err != nil {
		return nil, fmt.Errorf("failed to open ZIP archive: %w", err)
	}

	if err := detectZipBomb(zipContent); err != nil {
		return nil, fmt.Errorf("ZIP bomb detected: %w", err)
	}

	var names []string
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		names = append(names, file.Name)
	}

	selected := selectSubtitleFile(names, episode)
	if selected == "" {
		return nil, &apperrors.ErrNoSubtitleInArchive{Episode: episode, FileCount: len(names)}
	}

	for _, file := range zipReader.File {
		if file.Name != selected {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file %s in ZIP: %w", file.Name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(io.LimitReader(rc, maxUncompressedFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s from ZIP: %w", file.Name, err)
		}
		if len(content) > maxUncompressedFileSize {
			return nil, fmt.Errorf("ZIP bomb detected: file %s exceeds maximum uncompressed size of %d bytes", file.Name, maxUncompressedFileSize)
		}

		return buildArchiveResult(file.Name, content), nil
	}

	return nil, &apperrors.ErrNoSubtitleInArchive{Episode: episode, FileCount: len(names)}
}

// detectZipBomb rejects archives whose declared uncompressed sizes exceed the
// per-file or total limits, before any file is inflated. Declared sizes can
// lie, so extraction enforces the per-file limit again while reading.
func detectZipBomb(zipContent []byte) error {
	zipReader, err := zip.NewReader(bytes.NewReader(zipContent), int64(len(zipContent)))
	if err != nil {
		return fmt.Errorf("failed to open ZIP archive: %w", err)
	}

	var total uint64
	for _, file := range zipReader.File {
		if file.UncompressedSize64 > maxUncompressedFileSize {
			return fmt.Errorf("file %s exceeds maximum uncompressed size of %d bytes", file.Name, maxUncompressedFileSize)
		}
		total += file.UncompressedSize64
		if total > maxTotalUncompressedSize {
			return fmt.Errorf("total uncompressed size exceeds maximum of %d bytes", maxTotalUncompressedSize)
		}
	}
	return nil
}

// extractFromRar picks and inflates the best subtitle file from a RAR archive.
// RAR is read as a stream, so selection walks the headers once and a second
// pass extracts the chosen file.
func extractFromRar(rarContent []byte, episode int) (*models.DownloadResult, error) {
	names, err := listRarFiles(rarContent)
	if err != nil {
		return nil, fmt.Errorf("failed to read RAR archive: %w", err)
	}

	selected := selectSubtitleFile(names, episode)
	if selected == "" {
		return nil, &apperrors.ErrNoSubtitleInArchive{Episode: episode, FileCount: len(names)}
	}

	reader, err := rardecode.NewReader(bytes.NewReader(rarContent))
	if err != nil {
		return nil, fmt.Errorf("failed to open RAR archive: %w", err)
	}

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read RAR archive: %w", err)
		}
		if header.IsDir || header.Name != selected {
			continue
		}

		content, err := io.ReadAll(io.LimitReader(reader, maxUncompressedFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s from RAR: %w", header.Name, err)
		}
		if len(content) > maxUncompressedFileSize {
			return nil, fmt.Errorf("RAR bomb detected: file %s exceeds maximum uncompressed size of %d bytes", header.Name, maxUncompressedFileSize)
		}

		return buildArchiveResult(header.Name, content), nil
	}

	return nil, &apperrors.ErrNoSubtitleInArchive{Episode: episode, FileCount: len(names)}
}

// listRarFiles walks the archive headers without inflating file contents.
func listRarFiles(rarContent []byte) ([]string, error) {
	reader, err := rardecode.NewReader(bytes.NewReader(rarContent))
	if err != nil {
		return nil, err
	}

	var names []string
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		if header.IsDir {
			continue
		}
		names = append(names, header.Name)
	}
}

// selectSubtitleFile picks the best entry from archive file names. With an
// episode, only names matching the episode pattern are considered; subtitle
// extensions win in preference order, and an episode match with an
// unrecognized extension still beats nothing. Without an episode the best
// subtitle file overall wins. Returns "" when nothing qualifies.
func selectSubtitleFile(names []string, episode int) string {
	candidates := names
	if episode > 0 {
		pattern := episodePattern(episode)
		candidates = nil
		for _, name := range names {
			if pattern.MatchString(name) {
				candidates = append(candidates, name)
			}
		}
	}

	for _, ext := range subtitleExtensions {
		for _, name := range candidates {
			if strings.EqualFold(filepath.Ext(name), ext) {
				return name
			}
		}
	}

	if episode > 0 && len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// episodePattern builds a filename matcher for an episode number covering the
// S03E01, E01, and 3x01 naming conventions, with boundaries so episode 1 does
// not match episode 10.
func episodePattern(episode int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:s\d+e%02d(?:\D|$)|e%02d(?:\D|$)|\d+x%02d(?:\D|$))`, episode, episode, episode))
}

// buildArchiveResult assembles the download result for an extracted archive
// entry, normalizing textual subtitle content to UTF-8.
func buildArchiveResult(entryName string, content []byte) *models.DownloadResult {
	filename := sanitizeFilename(filepath.Base(entryName))
	contentType := getContentTypeFromFilename(filename)
	if isTextSubtitleContentType(contentType) {
		content = convertToUTF8(content)
	}

	return &models.DownloadResult{
		Filename:    filename,
		Content:     content,
		ContentType: contentType,
	}
}

// generateFilename creates a filename from the download token and content type.
func generateFilename(token, contentType string) string {
	name := sanitizeFilename(token)
	if name == "" {
		name = "subtitle"
	}
	return name + getExtensionFromContentType(contentType)
}

// sanitizeFilename replaces invalid UTF-8 bytes with the replacement character
// and neutralizes path separators. Archive entry names may carry legacy
// encodings, and download tokens are opaque provider strings.
func sanitizeFilename(name string) string {
	name = strings.ToValidUTF8(name, string(utf8.RuneError))
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}

// mediaType extracts the lowercased media type, falling back to the raw
// lowercased string when the header does not parse.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mt
}

// getExtensionFromContentType derives file extension from MIME type
func getExtensionFromContentType(contentType string) string {
	mt := mediaType(contentType)

	// Check most specific patterns first to avoid false matches
	switch {
	case strings.Contains(mt, "zip") && !strings.Contains(mt, "gzip"):
		return ".zip"
	case strings.Contains(mt, "x-rar"), strings.Contains(mt, "vnd.rar"):
		return ".rar"
	case strings.Contains(mt, "x-subrip"):
		return ".srt"
	case strings.Contains(mt, "x-ass"), strings.Contains(mt, "/ass"):
		return ".ass"
	case strings.Contains(mt, "vtt"):
		return ".vtt"
	case strings.Contains(mt, "x-sub"):
		return ".sub"
	case strings.Contains(mt, "srt"):
		return ".srt"
	default:
		// Default to .srt for subtitle files
		return ".srt"
	}
}

// getContentTypeFromFilename derives MIME type from file extension
func getContentTypeFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".srt":
		return "application/x-subrip"
	case ".ass", ".ssa":
		return "application/x-ass"
	case ".vtt":
		return "text/vtt"
	case ".sub":
		return "application/x-sub"
	case ".zip":
		return "application/zip"
	case ".rar":
		return "application/x-rar-compressed"
	default:
		return "application/octet-stream"
	}
}

// isTextSubtitleContentType reports whether the content type names a textual
// subtitle format whose bytes should be normalized to UTF-8.
func isTextSubtitleContentType(contentType string) bool {
	mt := mediaType(contentType)
	switch {
	case strings.Contains(mt, "x-subrip"),
		strings.Contains(mt, "x-ass"),
		strings.Contains(mt, "/ass"),
		strings.Contains(mt, "vtt"),
		strings.Contains(mt, "x-sub"),
		strings.Contains(mt, "srt"),
		mt == "text/plain":
		return true
	}
	return false
}

// isZipContentType reports whether the content type names a ZIP archive.
// Gzip is a different format and must not match.
func isZipContentType(contentType string) bool {
	mt := mediaType(contentType)
	return strings.Contains(mt, "zip") && !strings.Contains(mt, "gzip")
}

// isRarContentType reports whether the content type names a RAR archive.
func isRarContentType(contentType string) bool {
	return strings.Contains(mediaType(contentType), "rar")
}

// ZIP local file, empty archive, and spanned archive magic numbers.
var zipMagics = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
	{0x50, 0x4B, 0x05, 0x06},
	{0x50, 0x4B, 0x07, 0x08},
}

// isZipFile checks the content's magic number for a ZIP signature.
func isZipFile(content []byte) bool {
	for _, magic := range zipMagics {
		if bytes.HasPrefix(content, magic) {
			return true
		}
	}
	return false
}

// rarMagic is the signature prefix shared by RAR 4.x and 5.x archives.
var rarMagic = []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07}

// isRarFile checks the content's magic number for a RAR signature.
func isRarFile(content []byte) bool {
	return bytes.HasPrefix(content, rarMagic)
}

// archiveContentType reports the MIME type for cached archive bytes.
func archiveContentType(content []byte) string {
	if isRarFile(content) {
		return "application/x-rar-compressed"
	}
	return "application/zip"
}
