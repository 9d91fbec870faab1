package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
)

func captureLine(t *testing.T, format logFormat, emit func(log *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	log := slog.New(handler).With("component", "app")
	emit(log)
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	line := captureLine(t, formatKV, func(log *slog.Logger) {
		ctx := WithRID(Background(), "rid-123")
		ctx = WithUpdateMeta(ctx, 42, 7, 9)
		LogEvent(ctx, log, slog.LevelInfo, "test.event",
			slog.String("status", "ok"),
			slog.String("cause", "unit"),
		)
	})
	require.NotEmpty(t, line)

	tokens := strings.Split(line, " ")
	require.GreaterOrEqual(t, len(tokens), 6, "line: %s", line)
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix),
			"token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	line := captureLine(t, formatJSON, func(log *slog.Logger) {
		ctx := WithRID(Background(), "rid-json")
		ctx = WithUpdateMeta(ctx, 11, 22, 33)
		LogEvent(ctx, log, slog.LevelError, "dispatch.failed",
			slog.String("status", "fail"),
			slog.String("err", "boom"),
			slog.String("err_code", "TEST_FAIL"),
		)
	})
	require.True(t, strings.HasPrefix(line, "{"), "expected JSON, got %s", line)

	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"app"`, `"event":"dispatch.failed"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.NotEqual(t, -1, idx, "prefix %s missing in %s", pref, line)
		assert.Greater(t, idx, pos, "prefix %s out of order in %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	const rawRID = "123:456:789"

	t.Run("kv omits rid_full", func(t *testing.T) {
		line := captureLine(t, formatKV, func(log *slog.Logger) {
			LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test",
				slog.String("status", "ok"),
			)
		})
		assert.Contains(t, line, "rid="+CompactRID(rawRID))
		assert.NotContains(t, line, "rid_full=")
	})

	t.Run("json keeps rid_full and nano timestamp", func(t *testing.T) {
		line := captureLine(t, formatJSON, func(log *slog.Logger) {
			LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test",
				slog.String("status", "ok"),
			)
		})
		assert.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
		assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
		assert.Contains(t, line, `"ts_unix_nano"`)
	})
}
