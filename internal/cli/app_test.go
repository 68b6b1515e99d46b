package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunner_Names(t *testing.T) {
	r := NewRunner()
	r.RegisterCommand("target", func([]string) {})
	r.RegisterCommand("adjust", func([]string) {})

	assert.Equal(t, []string{"adjust", "target"}, r.Names())
	assert.True(t, r.Has("adjust"))
	assert.False(t, r.Has("move"))
}

func TestNewLogger_Levels(t *testing.T) {
	assert.False(t, NewLogger(false).Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, NewLogger(true).Enabled(context.Background(), slog.LevelDebug))
}
