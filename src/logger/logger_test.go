package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

func TestInitLoggerWritesJSONAtLevel(t *testing.T) {
	prev := L
	t.Cleanup(func() {
		L = prev
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	initLogger(&buf, "warn")
	buf.Reset()

	L.Info("dropped")
	L.Warn("kept", "key", "value")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "value", line["key"])
	assert.NotContains(t, buf.String(), "dropped")
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))

	var buf bytes.Buffer
	custom := slog.New(slog.NewJSONHandler(&buf, nil)).With("requestID", "abc")
	ctx := ToContext(context.Background(), custom)
	assert.Same(t, custom, FromContext(ctx))

	InfoFromContext(ctx, "hello")
	assert.Contains(t, buf.String(), `"requestID":"abc"`)
}
