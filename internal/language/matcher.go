// Package language decides whether subtitle language codes satisfy a
// requested language. Providers report languages as ISO 639-1 two-letter
// codes, ISO 639-2 three-letter codes, full English names, or regional
// variants (pt-BR, zh_TW); callers usually ask with a bare two-letter code.
// Matching is structural and never errors: an unknown code simply fails to
// match.
package language

import (
	"strings"

	"github.com/subtitlarr/subtitlarr/internal/models"
)

// DefaultLanguage is assumed when the caller supplies no language at all.
const DefaultLanguage = "en"

// Matches reports whether a candidate's language code satisfies the
// requested one. A candidate matches if any of the following holds,
// case-insensitively:
//
//  1. candidate and requested are equal;
//  2. candidate equals the requested code's base language;
//  3. the candidate's base language equals the requested code;
//  4. both base languages are equal (so zh-CN satisfies a zh-TW request);
//  5. the equivalence table links the codes (or their bases), e.g. eng/en.
func Matches(candidateLanguage, requestedLanguage string) bool {
	cand := strings.ToLower(strings.TrimSpace(candidateLanguage))
	req := strings.ToLower(strings.TrimSpace(requestedLanguage))

	if cand == req {
		return true
	}

	candBase := base(cand)
	reqBase := base(req)
	if cand == reqBase || candBase == req || candBase == reqBase {
		return true
	}

	return equivalent(cand, req) ||
		equivalent(candBase, req) ||
		equivalent(cand, reqBase) ||
		equivalent(candBase, reqBase)
}

// Filter returns the candidates whose language satisfies requestedLanguage,
// preserving the input order. An empty requested language falls back to
// DefaultLanguage. The input slice is never modified.
func Filter(candidates []models.SubtitleCandidate, requestedLanguage string) []models.SubtitleCandidate {
	requested := strings.TrimSpace(requestedLanguage)
	if requested == "" {
		requested = DefaultLanguage
	}

	filtered := make([]models.SubtitleCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if Matches(candidate.Language, requested) {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

// Requested resolves the language a caller asked for: an explicit two-letter
// code wins over a full language name, and DefaultLanguage is the fallback
// when neither is given.
func Requested(code, name string) string {
	if c := strings.TrimSpace(code); c != "" {
		return c
	}
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return DefaultLanguage
}

// base returns the language subtag before the first regional qualifier:
// base("pt-BR") and base("pt_BR") are "pt", base("pt") is "pt".
func base(code string) string {
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		return code[:i]
	}
	return code
}
