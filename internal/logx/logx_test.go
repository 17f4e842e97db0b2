package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("nonsense", false)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))

	d := New("debug", true)
	assert.True(t, d.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestLoggerFromContext(t *testing.T) {
	assert.Same(t, Logger, LoggerFromContext(context.Background()))

	l := zap.NewNop().Sugar()
	ctx := ContextWithLogger(context.Background(), l)
	assert.Same(t, l, LoggerFromContext(ctx))
}
