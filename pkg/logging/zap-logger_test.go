package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFieldsAreAppended(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	ctx := WithContextFields(context.Background(), zap.String("path", "/api/create-bill"))
	ctx = WithContextFields(ctx, zap.String("request-id", "r-1"))
	logger.InfoCtx(ctx, "bill created", zap.String("billCode", "abc"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "bill created", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "/api/create-bill", fields["path"])
	assert.Equal(t, "r-1", fields["request-id"])
	assert.Equal(t, "abc", fields["billCode"])
}

func TestLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := NewFromZap(zap.New(core))

	logger.DebugCtx(context.Background(), "debug")
	logger.InfoCtx(context.Background(), "info")
	logger.WarnCtx(context.Background(), "warn")
	logger.ErrorCtx(context.Background(), "error")

	assert.Equal(t, 2, logs.Len())
}

func TestWithoutFieldsKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithContextFields(ctx))
}
