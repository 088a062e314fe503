package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	t.Parallel()

	base := mustTestLogger(t)
	withRequest := base.With(logger.String("request_id", "req-1"))

	ctx := logger.WithContext(context.Background(), withRequest)

	assert.Same(t, withRequest, logger.FromContext(ctx))
}

func TestFromContext_LaterLoggerWins(t *testing.T) {
	t.Parallel()

	first := mustTestLogger(t)
	second := mustTestLogger(t)

	ctx := logger.WithContext(context.Background(), first)
	ctx = logger.WithContext(ctx, second)

	assert.Same(t, second, logger.FromContext(ctx))
}

func TestFromContext_FallbackIsSharedAndUsable(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())

	require.NotNil(t, a)
	assert.Same(t, a, b)

	// filtered by level but must not panic
	a.Info("poll tick", logger.Int("generation", 3))
	a.Warn("stale poll result discarded", logger.String("user_id", "u-1"))
}

func TestNew_ConsoleFormat(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{
		Level:       "debug",
		Format:      logger.FormatConsole,
		OutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)

	l.Debug("cli debug output", logger.Bool("debug", true))
}

func TestNop_WithReturnsSelf(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()

	assert.Equal(t, nop, nop.With(logger.String("k", "v")))
	assert.NoError(t, nop.Sync())
}

func mustTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := logger.New(logger.Config{
		Level:       "warn",
		OutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)

	return l
}
