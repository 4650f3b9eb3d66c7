package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gregtusar/pairs/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.WithField("pair", "GOOG/MSFT").Info("run complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run complete", entry["msg"])
	assert.Equal(t, "GOOG/MSFT", entry["pair"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(config.LoggingConfig{Level: "loud"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pairs.log")
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1}, &buf)
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, buf.String(), "hello")
}
