package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesErrorsToFile(t *testing.T) {
	var console bytes.Buffer
	errPath := filepath.Join(t.TempDir(), "errors.log")

	res, err := New(Options{Level: "debug", ErrFile: errPath, Console: &console})
	require.NoError(t, err)

	log := Component(res.Logger, "scheduler")
	log.Info().Msg("job armed")
	log.Error().Err(errors.New("store unavailable")).Msg("job failed")
	require.NoError(t, res.Close())

	assert.Contains(t, console.String(), "job armed")
	assert.Contains(t, console.String(), "job failed")

	data, err := os.ReadFile(errPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "store unavailable")
	assert.Contains(t, string(data), `"component":"scheduler"`)
	assert.NotContains(t, string(data), "job armed")
}

func TestNewFallsBackToInfo(t *testing.T) {
	var console bytes.Buffer
	res, err := New(Options{Level: "verbose", Console: &console})
	require.NoError(t, err)

	res.Logger.Debug().Msg("hidden")
	res.Logger.Info().Msg("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
	assert.NoError(t, res.Close())
}
