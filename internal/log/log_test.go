package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtx_DefaultLogger(t *testing.T) {
	assert.Same(t, defaultLogger, Ctx(context.Background()))
}

func TestWith_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(context.Background(), logger)
	assert.Same(t, logger, Ctx(ctx))

	ctx = WithAttrs(ctx, "run_id", "abc")
	Ctx(ctx).Info("hello")
	assert.Contains(t, buf.String(), "run_id=abc")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestSetLevelFromString(t *testing.T) {
	defer SetDefaultLogLevel(slog.LevelInfo)

	require.NoError(t, SetLevelFromString("debug"))
	assert.Equal(t, slog.LevelDebug, defaultLogLevel.Level())

	require.NoError(t, SetLevelFromString("WARN"))
	assert.Equal(t, slog.LevelWarn, defaultLogLevel.Level())

	assert.Error(t, SetLevelFromString("loud"))
}
