package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/botforge/core/telegram/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestRenderStats(t *testing.T) {
	reg := registry.New()
	rb := registry.NewRegistrar(reg)

	ok := func(tele.Context) error { return nil }
	fail := func(tele.Context) error { return errors.New("boom") }

	_, err := rb.Command("alpha", ok, registry.CommandSpec{Description: "a"})
	require.NoError(t, err)
	_, err = rb.Command("beta", fail, registry.CommandSpec{Description: "b"})
	require.NoError(t, err)

	t.Run("empty registry stats", func(t *testing.T) {
		out := renderStats(registry.New())
		assert.Contains(t, out, "Handlers: 0")
		assert.Contains(t, out, "Errors: 0 (0.0%)")
		assert.NotContains(t, out, "By handler:")
	})

	t.Run("per handler lines sorted by call count", func(t *testing.T) {
		alpha := reg.GetByCommand("alpha")
		beta := reg.GetByCommand("beta")
		require.NoError(t, alpha.Wrapped()(nil))
		require.NoError(t, alpha.Wrapped()(nil))
		require.Error(t, beta.Wrapped()(nil))

		out := renderStats(reg)
		assert.Contains(t, out, "Handlers: 2")
		assert.Contains(t, out, "Calls: 3")
		assert.Contains(t, out, "Errors: 1 (33.3%)")

		ia := strings.Index(out, "cmd_alpha")
		ib := strings.Index(out, "cmd_beta")
		require.GreaterOrEqual(t, ia, 0)
		require.GreaterOrEqual(t, ib, 0)
		assert.Less(t, ia, ib, "busier handler should be listed first")
	})
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		description string
		answered    int
		total       int
		want        string
	}{
		{"empty", 0, 4, "░░░░░░░░░░ 0/4"},
		{"half", 2, 4, "█████░░░░░ 2/4"},
		{"full", 4, 4, "██████████ 4/4"},
		{"zero total", 0, 0, "done"},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.want, progressBar(tc.answered, tc.total))
		})
	}
}
