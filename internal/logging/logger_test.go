package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, slog.LevelInfo)

	logger.Info("journal append failed", "error", errors.New("boom"))

	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "error=")
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silvershell.log")

	logger, closer, err := Open(false, path)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("command blocked", "prefix", "rm")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command blocked")
	assert.NotContains(t, string(data), "hidden")
}

func TestOpen_BadPath(t *testing.T) {
	_, _, err := Open(true, filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}

func TestOpen_Nop(t *testing.T) {
	logger, closer, err := Open(false, "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}
