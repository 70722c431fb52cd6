package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, l, InfoLogger)
	assert.NotPanics(t, func() { Info("started %d", 1) })

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}
