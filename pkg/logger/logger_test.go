package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nisha0202/lms-backend/config"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1), "debug 级别应启用")

	_, err = NewLogger(&config.LogConfig{Level: "info", Format: "console"})
	assert.NoError(t, err)
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = NewLogger(&config.LogConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
