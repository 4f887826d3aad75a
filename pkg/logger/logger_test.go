package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []Entry {
	t.Helper()
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Info("skipped")
	log.Warn("kept", UserID("u1"))
	log.Error("failed", Err(errors.New("boom")))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "u1", entries[0].Fields["user_id"])
	assert.Equal(t, "boom", entries[1].Fields["error"])
}

func TestLogger_WithKeepsParentFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelDebug}).With(Component("http"))
	child := base.WithRequestID("req-1").With(LessonID("a1-1"), Points(80))

	child.Debug("lesson completed")
	base.Debug("base only")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "http", entries[0].Fields["component"])
	assert.Equal(t, "req-1", entries[0].Fields[RequestIDKey])
	assert.Equal(t, "a1-1", entries[0].Fields["lesson_id"])
	assert.EqualValues(t, 80, entries[0].Fields["points"])
	assert.NotContains(t, entries[1].Fields, RequestIDKey)
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})
	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.False(t, Nop().Enabled(LevelFatal))
}
