package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medml-risk-server/internal/domain"
)

func TestNew_LevelAndFormat(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.LoggingConfig
		level     logrus.Level
		formatter logrus.Formatter
	}{
		{"defaults", domain.LoggingConfig{}, logrus.InfoLevel, &logrus.JSONFormatter{}},
		{"debug text", domain.LoggingConfig{Level: "debug", Format: "text"}, logrus.DebugLevel, &logrus.TextFormatter{}},
		{"warn json", domain.LoggingConfig{Level: "warn", Format: "json"}, logrus.WarnLevel, &logrus.JSONFormatter{}},
		{"bogus level", domain.LoggingConfig{Level: "loud"}, logrus.InfoLevel, &logrus.JSONFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			assert.Equal(t, tt.level, logger.GetLevel())
			assert.IsType(t, tt.formatter, logger.Formatter)
		})
	}
}

func TestNew_Output(t *testing.T) {
	assert.Equal(t, os.Stdout, New(domain.LoggingConfig{Output: "stdout"}).Out)
	assert.Equal(t, os.Stderr, New(domain.LoggingConfig{Output: "stderr"}).Out)

	path := filepath.Join(t.TempDir(), "server.log")
	logger := New(domain.LoggingConfig{Output: path, Format: "json"})
	logger.WithField("patient_id", "p-1").Info("Prediction saved")

	f, ok := logger.Out.(*os.File)
	require.True(t, ok)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Prediction saved"`)
	assert.Contains(t, string(data), `"patient_id":"p-1"`)
}

func TestNew_UnwritableOutputFallsBack(t *testing.T) {
	logger := New(domain.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Equal(t, os.Stderr, logger.Out)
}
