package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/lifestep/core"
)

// Not parallel: the logger is process-wide.
func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	e, err := NewEngine(&EngineOptions{Workers: 2})
	require.NoError(t, err)
	require.NoError(t, e.Step(context.Background(), core.MustGrid(5, 5)))
	require.Error(t, e.Step(context.Background(), core.MustGrid(2, 2)))
	require.NoError(t, e.Close())

	out := buf.String()
	assert.Contains(t, out, "engine started")
	assert.Contains(t, out, "arena allocated")
	assert.Contains(t, out, "combine done")
	assert.Contains(t, out, "step failed")
	assert.Contains(t, out, "engine closed")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
