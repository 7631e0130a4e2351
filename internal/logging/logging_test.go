package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsLoggerAtLevel(t *testing.T) {
	log, err := New("debug")
	require.NoError(t, err)
	assert.NotNil(t, log)
	_ = log.Sync() // console-encoded stderr sync can harmlessly fail outside a real terminal
}

func TestNewFallsBackToInfoOnUnknownLevel(t *testing.T) {
	log, err := New("not-a-level")
	require.NoError(t, err)
	assert.NotNil(t, log)
}
