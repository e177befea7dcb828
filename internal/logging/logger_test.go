package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa-screening-server/internal/domain"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.LoggingConfig
		wantLevel logrus.Level
		wantJSON  bool
		wantErr   bool
	}{
		{"Defaults", domain.LoggingConfig{}, logrus.InfoLevel, true, false},
		{"Debug text", domain.LoggingConfig{Level: "debug", Format: "text"}, logrus.DebugLevel, false, false},
		{"Upper case level", domain.LoggingConfig{Level: "WARN", Format: "json", Output: "stderr"}, logrus.WarnLevel, true, false},
		{"Invalid level", domain.LoggingConfig{Level: "loud"}, 0, false, true},
		{"Invalid format", domain.LoggingConfig{Format: "xml"}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osa.log")

	logger, err := NewLogger(domain.LoggingConfig{Level: "info", Output: path})
	require.NoError(t, err)

	logger.WithField("risk_tier", "Low Risk").Info("evaluation complete")
	require.NoError(t, Close(logger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"risk_tier":"Low Risk"`)
	assert.Contains(t, string(data), "evaluation complete")
}

func TestNewLogger_UnwritableFile(t *testing.T) {
	_, err := NewLogger(domain.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "dir", "osa.log")})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	t.Run("File output", func(t *testing.T) {
		logger, err := NewLogger(domain.LoggingConfig{Output: filepath.Join(t.TempDir(), "osa.log")})
		require.NoError(t, err)

		require.NoError(t, Close(logger))

		err = Close(logger)
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrClosed))
	})

	t.Run("Standard streams stay open", func(t *testing.T) {
		for _, output := range []string{"stdout", "stderr"} {
			logger, err := NewLogger(domain.LoggingConfig{Output: output})
			require.NoError(t, err)
			assert.NoError(t, Close(logger))
			assert.NoError(t, Close(logger))
		}
	})

	t.Run("Nil logger", func(t *testing.T) {
		assert.NoError(t, Close(nil))
	})
}
