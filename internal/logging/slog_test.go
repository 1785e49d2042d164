package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestNew_ProductionWritesJSONAndSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	log.Info(ctx, "store selected", "backend", "redis")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "store selected", entry["msg"])
	assert.Equal(t, "redis", entry["backend"])
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.With("host", "a.example").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "host=a.example")
	assert.Contains(t, out, "k=v")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() {
		log.Error(context.TODO(), "dropped", "k", "v")
	})
	assert.NotNil(t, log.Slog())
}
