package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		description string
		in          string
		want        time.Time
		ok          bool
	}{
		{"iso date", "2026-08-26", time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local), true},
		{"iso with time", "2026-08-26 14:30", time.Date(2026, 8, 26, 14, 30, 0, 0, time.Local), true},
		{"dotted date", "26.08.2026", time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local), true},
		{"short dotted", "2.1.2026", time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local), true},
		{"padded input", "  2026-08-26  ", time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "next tuesday", time.Time{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			got, ok := ParseFlexibleDate(tc.in)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.want.Equal(got), "got %v", got)
			}
		})
	}
}
