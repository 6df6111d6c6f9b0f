// subtitle_downloader_helpers_test.go tests the individual helper functions in
// subtitle_downloader_impl.go that are not fully exercised by the integration-style
// tests in subtitle_downloader_test.go. Each test targets specific uncovered branches
// such as empty inputs, fallback paths, and error handling.
package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/subtitlarr/subtitlarr/internal/config"
)

func Test_generateFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		token       string
		contentType string
		want        string
	}{
		{
			name:        "numeric token with srt content type",
			token:       "123456789",
			contentType: "application/x-subrip",
			want:        "123456789.srt",
		},
		{
			name:        "empty token falls back to subtitle",
			token:       "",
			contentType: "application/x-subrip",
			want:        "subtitle.srt",
		},
		{
			name:        "empty token with zip content type",
			token:       "",
			contentType: "application/zip",
			want:        "subtitle.zip",
		},
		{
			name:        "token with rar content type",
			token:       "abc123",
			contentType: "application/x-rar-compressed",
			want:        "abc123.rar",
		},
		{
			name:        "token with path separator",
			token:       "a/b",
			contentType: "text/vtt",
			want:        "a_b.vtt",
		},
		{
			name:        "token with invalid UTF-8 byte",
			token:       "tok\xe9n",
			contentType: "text/vtt",
			want:        "tok�n.vtt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := generateFilename(tt.token, tt.contentType)
			if got != tt.want {
				t.Errorf("generateFilename(%q, %q) = %q, want %q", tt.token, tt.contentType, got, tt.want)
			}
		})
	}
}

func Test_sanitizeFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid filename unchanged",
			input: "show.s03e01.srt",
			want:  "show.s03e01.srt",
		},
		{
			name:  "valid UTF-8 accents preserved",
			input: "Pokémon.srt",
			want:  "Pokémon.srt",
		},
		{
			name:  "smart quotes preserved",
			input: "It’s.A.Show.srt",
			want:  "It’s.A.Show.srt",
		},
		{
			name:  "invalid UTF-8 byte replaced",
			input: "Pok\xe9mon.srt",
			want:  "Pok�mon.srt",
		},
		{
			name:  "forward slash replaced",
			input: "path/to/file.srt",
			want:  "path_to_file.srt",
		},
		{
			name:  "backslash replaced",
			input: "dir\\file.srt",
			want:  "dir_file.srt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func Test_getExtensionFromContentType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/x-subrip", ".srt"},
		{"application/zip", ".zip"},
		{"application/zip; charset=utf-8", ".zip"},
		{"application/x-zip-compressed", ".zip"},
		{"APPLICATION/ZIP", ".zip"},
		{"application/x-rar-compressed", ".rar"},
		{"application/vnd.rar", ".rar"},
		{"application/x-ass", ".ass"},
		{"application/ass", ".ass"},
		{"text/vtt", ".vtt"},
		{"application/x-sub", ".sub"},
		{"text/srt", ".srt"},
		// Gzip is not zip
		{"application/gzip", ".srt"},
		{"application/x-gzip", ".srt"},
		// Malformed parameters fall back to the raw string
		{"application/zip; charset", ".zip"},
		{"", ".srt"},
		{"unknown/type", ".srt"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			got := getExtensionFromContentType(tt.contentType)
			if got != tt.want {
				t.Errorf("getExtensionFromContentType(%q) = %q, want %q", tt.contentType, got, tt.want)
			}
		})
	}
}

func Test_getContentTypeFromFilename(t *testing.T) {
	t.Parallel()
	tests := []struct {
		filename string
		want     string
	}{
		{"movie.srt", "application/x-subrip"},
		{"MOVIE.SRT", "application/x-subrip"},
		{"movie.ass", "application/x-ass"},
		{"movie.ssa", "application/x-ass"},
		{"movie.vtt", "text/vtt"},
		{"movie.sub", "application/x-sub"},
		{"pack.zip", "application/zip"},
		{"pack.rar", "application/x-rar-compressed"},
		{"movie.xyz", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()
			got := getContentTypeFromFilename(tt.filename)
			if got != tt.want {
				t.Errorf("getContentTypeFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func Test_isTextSubtitleContentType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/x-subrip", true},
		{"application/x-ass", true},
		{"application/ass", true},
		{"text/vtt", true},
		{"application/x-sub", true},
		{"text/srt", true},
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"application/zip", false},
		{"application/x-rar-compressed", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			got := isTextSubtitleContentType(tt.contentType)
			if got != tt.want {
				t.Errorf("isTextSubtitleContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func Test_isZipContentType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/zip", true},
		{"application/x-zip-compressed", true},
		{"multipart/x-zip", true},
		{"application/zip; charset=utf-8", true},
		{"application/gzip", false},
		{"application/x-gzip", false},
		{"application/x-subrip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			got := isZipContentType(tt.contentType)
			if got != tt.want {
				t.Errorf("isZipContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func Test_isRarContentType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/x-rar-compressed", true},
		{"application/vnd.rar", true},
		{"application/x-rar", true},
		{"application/zip", false},
		{"application/x-subrip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			got := isRarContentType(tt.contentType)
			if got != tt.want {
				t.Errorf("isRarContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func Test_isZipFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "standard ZIP magic",
			content: []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00},
			want:    true,
		},
		{
			name:    "empty archive magic",
			content: []byte{0x50, 0x4B, 0x05, 0x06},
			want:    true,
		},
		{
			name:    "spanned archive magic",
			content: []byte{0x50, 0x4B, 0x07, 0x08},
			want:    true,
		},
		{
			name:    "truncated magic",
			content: []byte{0x50, 0x4B},
			want:    false,
		},
		{
			name:    "RAR magic",
			content: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},
			want:    false,
		},
		{
			name:    "plain text",
			content: []byte("1\n00:00:01,000 --> 00:00:02,000\n"),
			want:    false,
		},
		{
			name:    "empty content",
			content: []byte{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := isZipFile(tt.content)
			if got != tt.want {
				t.Errorf("isZipFile(%v) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func Test_isRarFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "RAR4 magic",
			content: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},
			want:    true,
		},
		{
			name:    "RAR5 magic",
			content: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00},
			want:    true,
		},
		{
			name:    "ZIP magic",
			content: []byte{0x50, 0x4B, 0x03, 0x04},
			want:    false,
		},
		{
			name:    "truncated magic",
			content: []byte{0x52, 0x61, 0x72},
			want:    false,
		},
		{
			name:    "empty content",
			content: []byte{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := isRarFile(tt.content)
			if got != tt.want {
				t.Errorf("isRarFile(%v) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func Test_archiveContentType(t *testing.T) {
	t.Parallel()
	rarContent := []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}
	if got := archiveContentType(rarContent); got != "application/x-rar-compressed" {
		t.Errorf("archiveContentType(rar) = %q, want application/x-rar-compressed", got)
	}

	zipContent := []byte{0x50, 0x4B, 0x03, 0x04}
	if got := archiveContentType(zipContent); got != "application/zip" {
		t.Errorf("archiveContentType(zip) = %q, want application/zip", got)
	}
}

func Test_selectSubtitleFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		files   []string
		episode int
		want    string
	}{
		{
			name:    "no episode picks subtitle over metadata",
			files:   []string{"movie.nfo", "movie.srt"},
			episode: 0,
			want:    "movie.srt",
		},
		{
			name:    "no episode prefers srt over ass",
			files:   []string{"movie.ass", "movie.srt"},
			episode: 0,
			want:    "movie.srt",
		},
		{
			name:    "no episode prefers vtt over sub",
			files:   []string{"movie.sub", "movie.vtt"},
			episode: 0,
			want:    "movie.vtt",
		},
		{
			name:    "extension match is case-insensitive",
			files:   []string{"MOVIE.SRT"},
			episode: 0,
			want:    "MOVIE.SRT",
		},
		{
			name:    "no episode and no subtitle extension returns empty",
			files:   []string{"readme.txt", "info.nfo"},
			episode: 0,
			want:    "",
		},
		{
			name:    "no episode does not fall back to unknown extensions",
			files:   []string{"movie.xyz"},
			episode: 0,
			want:    "",
		},
		{
			name:    "empty file list",
			files:   nil,
			episode: 0,
			want:    "",
		},
		{
			name:    "episode filters candidates",
			files:   []string{"show.s01e03.srt", "show.s01e04.srt"},
			episode: 3,
			want:    "show.s01e03.srt",
		},
		{
			name:    "episode match with unknown extension wins as fallback",
			files:   []string{"show.s01e03.xyz"},
			episode: 3,
			want:    "show.s01e03.xyz",
		},
		{
			name:    "episode not present returns empty",
			files:   []string{"show.s01e04.srt"},
			episode: 3,
			want:    "",
		},
		{
			name:    "episode 1 does not match episode 10",
			files:   []string{"show.s01e10.srt"},
			episode: 1,
			want:    "",
		},
		{
			name:    "NxMM naming convention",
			files:   []string{"show.3x06.srt", "show.3x07.srt"},
			episode: 7,
			want:    "show.3x07.srt",
		},
		{
			name:    "episode match prefers subtitle extension over fallback",
			files:   []string{"show.s01e03.nfo", "show.s01e03.ass"},
			episode: 3,
			want:    "show.s01e03.ass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := selectSubtitleFile(tt.files, tt.episode)
			if got != tt.want {
				t.Errorf("selectSubtitleFile(%v, %d) = %q, want %q", tt.files, tt.episode, got, tt.want)
			}
		})
	}
}

func Test_episodePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		episode  int
		filename string
		matches  bool
	}{
		{"SxxExx format", 1, "show.s03e01.srt", true},
		{"uppercase SxxExx", 1, "Show.S03E01.WEB-DL.srt", true},
		{"bare Exx format", 1, "show.e01.srt", true},
		{"NxMM format", 1, "show.3x01.srt", true},
		{"episode at end of name", 1, "show.s03e01", true},
		{"episode 1 vs episode 10", 1, "show.s03e10.srt", false},
		{"episode 1 vs episode 12", 1, "show.e012.srt", false},
		{"different episode", 5, "show.s03e04.srt", false},
		{"no episode marker", 3, "movie.1080p.srt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pattern := episodePattern(tt.episode)
			if got := pattern.MatchString(tt.filename); got != tt.matches {
				t.Errorf("episodePattern(%d).MatchString(%q) = %v, want %v", tt.episode, tt.filename, got, tt.matches)
			}
		})
	}
}

func Test_convertToUTF8(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "valid UTF-8 passes through",
			input: []byte("1\n00:00:01,000 --> 00:00:02,000\nCafé\n"),
			want:  "1\n00:00:01,000 --> 00:00:02,000\nCafé\n",
		},
		{
			name:  "UTF-8 BOM is stripped",
			input: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Café")...),
			want:  "Café",
		},
		{
			name:  "ISO-8859-1 accents are converted",
			input: []byte("Caf\xe9"),
			want:  "Café",
		},
		{
			name:  "Windows-1250 Central European text is converted",
			input: []byte("P\xf8\xedli\x9a"),
			want:  "Příliš",
		},
		{
			name:  "UTF-16LE with BOM is converted",
			input: []byte{0xFF, 0xFE, 0x43, 0x00, 0x61, 0x00, 0x66, 0x00, 0xE9, 0x00},
			want:  "Café",
		},
		{
			name:  "UTF-16BE with BOM is converted",
			input: []byte{0xFE, 0xFF, 0x00, 0x43, 0x00, 0x61, 0x00, 0x66, 0x00, 0xE9},
			want:  "Café",
		},
		{
			name:  "undefined legacy byte becomes replacement character",
			input: []byte{'a', 0x81, 'b'},
			want:  "a�b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := convertToUTF8(tt.input)
			if string(got) != tt.want {
				t.Errorf("convertToUTF8(%v) = %q, want %q", tt.input, string(got), tt.want)
			}
		})
	}
}

func Test_convertToUTF8_EmptyContent(t *testing.T) {
	t.Parallel()
	got := convertToUTF8([]byte{})
	if len(got) != 0 {
		t.Errorf("Expected empty result for empty input, got %v", got)
	}
}

func Test_resolveArchiveCacheConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses defaults", func(t *testing.T) {
		t.Parallel()
		size, ttl := resolveArchiveCacheConfig(nil)
		if size != defaultArchiveCacheSize {
			t.Errorf("Expected default size %d, got %d", defaultArchiveCacheSize, size)
		}
		if ttl != defaultArchiveCacheTTL {
			t.Errorf("Expected default TTL %v, got %v", defaultArchiveCacheTTL, ttl)
		}
	})

	t.Run("configured values are applied", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.ArchiveSize = 50
		cfg.Cache.ArchiveTTL = "30m"

		size, ttl := resolveArchiveCacheConfig(cfg)
		if size != 50 {
			t.Errorf("Expected size 50, got %d", size)
		}
		if ttl != 30*time.Minute {
			t.Errorf("Expected TTL 30m, got %v", ttl)
		}
	})

	t.Run("zero size uses default", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.ArchiveTTL = "30m"

		size, _ := resolveArchiveCacheConfig(cfg)
		if size != defaultArchiveCacheSize {
			t.Errorf("Expected default size %d, got %d", defaultArchiveCacheSize, size)
		}
	})

	t.Run("empty TTL uses default", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.ArchiveSize = 50

		_, ttl := resolveArchiveCacheConfig(cfg)
		if ttl != defaultArchiveCacheTTL {
			t.Errorf("Expected default TTL %v, got %v", defaultArchiveCacheTTL, ttl)
		}
	})

	t.Run("unparseable TTL uses default", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.ArchiveTTL = "24hours"

		_, ttl := resolveArchiveCacheConfig(cfg)
		if ttl != defaultArchiveCacheTTL {
			t.Errorf("Expected default TTL %v, got %v", defaultArchiveCacheTTL, ttl)
		}
	})

	t.Run("negative TTL uses default", func(t *testing.T) {
		t.Parallel()
		cfg := &config.Config{}
		cfg.Cache.ArchiveTTL = "-5m"

		_, ttl := resolveArchiveCacheConfig(cfg)
		if ttl != defaultArchiveCacheTTL {
			t.Errorf("Expected default TTL %v, got %v", defaultArchiveCacheTTL, ttl)
		}
	})
}

func TestSubtitleDownloader_Close(t *testing.T) {
	t.Parallel()
	downloader := NewSubtitleDownloader(http.DefaultClient)
	if err := downloader.Close(); err != nil {
		t.Errorf("Expected no error on Close, got: %v", err)
	}
}
