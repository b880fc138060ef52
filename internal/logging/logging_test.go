package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/config"
)

func TestNew(t *testing.T) {
	logger := New(config.LogConfig{Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger = New(config.LogConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestOutput(t *testing.T) {
	var stdout bytes.Buffer
	assert.Same(t, &stdout, Output(config.LogConfig{}, &stdout))

	file := filepath.Join(t.TempDir(), "portal.log")
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(Output(config.LogConfig{File: file, MaxSizeMB: 1}, &stdout))
	logger.WithField("user_id", "1").Info("Entry submitted")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &line))
	assert.Equal(t, "Entry submitted", line["msg"])

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(written))
}
