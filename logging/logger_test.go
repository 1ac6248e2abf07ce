package logging

import (
	"bytes"
	"testing"

	chlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_IdempotentAndDefaultLevel(t *testing.T) {
	t.Setenv(LevelEnv, "")
	Logger = nil
	InitLogger()
	first := Logger
	require.NotNil(t, first)
	assert.Equal(t, chlog.InfoLevel, first.GetLevel())

	InitLogger()
	require.Same(t, first, Logger)
}

func TestInitLogger_LevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnv, " DEBUG ")
	Logger = nil
	InitLogger()
	assert.Equal(t, chlog.DebugLevel, Logger.GetLevel())
}

func TestSetLogLevel(t *testing.T) {
	Logger = nil
	t.Setenv(LevelEnv, "")

	tests := map[string]chlog.Level{
		"debug": chlog.DebugLevel,
		"info":  chlog.InfoLevel,
		"warn":  chlog.WarnLevel,
		"error": chlog.ErrorLevel,
	}
	for level, expected := range tests {
		t.Run(level, func(t *testing.T) {
			require.True(t, SetLogLevel(level))
			assert.Equal(t, expected, Logger.GetLevel())
		})
	}

	SetLogLevel("warn")
	assert.False(t, SetLogLevel("verbose"))
	assert.Equal(t, chlog.WarnLevel, Logger.GetLevel())
}

func TestLogger_Output(t *testing.T) {
	var b bytes.Buffer
	l := newLogger(&b)
	l.SetReportTimestamp(false)
	l.Info("collected", "topics", 3)
	assert.Contains(t, b.String(), "collected")
	assert.Contains(t, b.String(), "topics=3")
}
