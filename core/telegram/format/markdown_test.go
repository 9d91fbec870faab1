package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		description string
		version     int
		in          string
		want        string
	}{
		{"v1 escapes emphasis", MarkdownV1, "a_b*c", `a\_b\*c`},
		{"v1 leaves v2-only specials", MarkdownV1, "a.b!c", "a.b!c"},
		{"v2 escapes dots and bangs", MarkdownV2, "hi. there!", `hi\. there\!`},
		{"v2 escapes brackets", MarkdownV2, "[link](x)", `\[link\]\(x\)`},
		{"plain text untouched", MarkdownV2, "hello world", "hello world"},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			got, err := EscapeMarkdown(tc.in, tc.version)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	_, err := EscapeMarkdown("x", 3)
	assert.Error(t, err)
}
