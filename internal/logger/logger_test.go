package logger

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/skims/internal/config"
)

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		level string
		want  hclog.Level
	}{
		{name: "default", want: hclog.Info},
		{name: "from config", level: "debug", want: hclog.Debug},
		{name: "env wins", env: "error", level: "debug", want: hclog.Error},
		{name: "unknown level", level: "loud", want: hclog.Info},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SKIMS_LOG_LEVEL", tt.env)
			cfg := &config.Config{Logger: config.Logger{Level: tt.level}}
			assert.Equal(t, tt.want, determineLogLevel(cfg))
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	t.Setenv("SKIMS_LOG_LEVEL", "")
	enabled := true
	cfg := &config.Config{Logger: config.Logger{JSONFormat: &enabled}}

	var buf bytes.Buffer
	newLogger(cfg, "scan", &buf).Info("scan finished", "files", 3)

	assert.Contains(t, buf.String(), `"@message":"scan finished"`)
	assert.Contains(t, buf.String(), `"files":3`)
	assert.Contains(t, buf.String(), `"@module":"scan"`)
}

func TestNewLoggerNilConfig(t *testing.T) {
	t.Setenv("SKIMS_LOG_LEVEL", "")
	var buf bytes.Buffer
	newLogger(nil, "skims", &buf).Debug("hidden")
	assert.Empty(t, buf.String())
}
