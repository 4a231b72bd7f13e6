package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"fatal", NewFatalError(ExitConfig, "bad config", nil), ExitConfig},
		{"wrapped fatal", fmt.Errorf("run: %w", NewFatalError(7, "root", fs.ErrNotExist)), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestDetectorErrorFromPanic(t *testing.T) {
	err := NewDetectorError("F009", "java_hardcoded_secret", "App.java", "index out of range")
	assert.EqualError(t, err, `detector "java_hardcoded_secret" (F009) failed on "App.java": panic: index out of range`)

	var detErr *DetectorError
	assert.True(t, errors.As(err, &detErr))
	assert.Equal(t, "App.java", detErr.Path)
}

func TestParseErrorUnwrap(t *testing.T) {
	err := NewParseError("main.tf", "hcl", fs.ErrPermission)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Contains(t, err.Error(), `"main.tf" as hcl`)
}
