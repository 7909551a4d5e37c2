package moderation

import "strings"

// ContentFilter decides which banned terms a piece of text contains.
// Implementations must be pure: no side effects, deterministic output.
type ContentFilter interface {
	// Scan returns the banned terms found in text. Empty or blank text
	// yields no matches.
	Scan(text string) []string

	// ContainsViolation reports whether Scan would return any match.
	ContainsViolation(text string) bool
}

// DefaultBannedWords is the launch wordlist. Real deployments would
// externalize this to a policy store; for now it is fixed at process start.
var DefaultBannedWords = []string{"욕설1", "욕설2", "사기", "도둑", "가짜"}

// KeywordFilter matches a fixed list of lowercase substrings,
// case-insensitively, against arbitrary text.
type KeywordFilter struct {
	words []string
}

var _ ContentFilter = (*KeywordFilter)(nil)

// NewKeywordFilter builds a filter over the given terms. With no terms it
// falls back to DefaultBannedWords. Terms are lowercased once here so Scan
// only lowercases the input.
func NewKeywordFilter(words ...string) *KeywordFilter {
	if len(words) == 0 {
		words = DefaultBannedWords
	}
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &KeywordFilter{words: lowered}
}

// Scan returns every banned term contained in text.
func (f *KeywordFilter) Scan(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var matches []string
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			matches = append(matches, w)
		}
	}
	return matches
}

// ContainsViolation reports whether text contains any banned term.
func (f *KeywordFilter) ContainsViolation(text string) bool {
	return len(f.Scan(text)) > 0
}
