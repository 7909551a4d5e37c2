package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordFilterScan(t *testing.T) {
	filter := NewKeywordFilter()

	tests := []struct {
		name    string
		text    string
		matches []string
	}{
		{"clean text", "멀쩡한 상품 팝니다", nil},
		{"empty text", "", nil},
		{"blank text", "   ", nil},
		{"single banned term", "사기 아닙니다 진짜예요", []string{"사기"}},
		{"term embedded in word", "도둑맞은 물건 아님", []string{"도둑"}},
		{"multiple banned terms", "가짜 명품, 사기 조심", []string{"사기", "가짜"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.matches, filter.Scan(tt.text))
			assert.Equal(t, len(tt.matches) > 0, filter.ContainsViolation(tt.text))
		})
	}
}

func TestKeywordFilterCustomWords(t *testing.T) {
	filter := NewKeywordFilter("SPAM", " scam ", "")

	// Terms are lowercased and trimmed at construction; matching is
	// case-insensitive on the input side.
	assert.Equal(t, []string{"spam"}, filter.Scan("This is Spam content"))
	assert.Equal(t, []string{"scam"}, filter.Scan("obvious SCAM"))
	assert.Nil(t, filter.Scan("legitimate offer"))
}

func TestKeywordFilterDefaultsWhenEmpty(t *testing.T) {
	filter := NewKeywordFilter()
	assert.True(t, filter.ContainsViolation("욕설1 포함된 글"))
}
