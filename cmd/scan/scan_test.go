package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/output"
	"github.com/scan-io-git/skims/internal/vulnerability"
)

func TestValidateScanArgs(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "main.tf")
	require.NoError(t, os.WriteFile(tmpFile, []byte("locals {}\n"), 0o644))

	tests := []struct {
		name    string
		options RunOptionsScan
		args    []string
		wantErr string
	}{
		{
			name:    "Valid target path",
			options: RunOptionsScan{Format: "csv"},
			args:    []string{tmpDir},
		},
		{
			name:    "Valid sarif with findings",
			options: RunOptionsScan{Format: "sarif", Findings: []string{"F024", "f031"}},
			args:    []string{tmpDir},
		},
		{
			name:    "Missing target path",
			options: RunOptionsScan{},
			args:    []string{},
			wantErr: "exactly one target path must be specified",
		},
		{
			name:    "Target path is a file",
			options: RunOptionsScan{},
			args:    []string{tmpFile},
			wantErr: "invalid target path",
		},
		{
			name:    "Negative workers",
			options: RunOptionsScan{Workers: -1},
			args:    []string{tmpDir},
			wantErr: "the 'workers' flag must be a positive integer",
		},
		{
			name:    "Unknown format",
			options: RunOptionsScan{Format: "xml"},
			args:    []string{tmpDir},
			wantErr: "unsupported report format",
		},
		{
			name:    "Unknown finding",
			options: RunOptionsScan{Findings: []string{"F999"}},
			args:    []string{tmpDir},
			wantErr: "F999",
		},
		{
			name:    "No cache with namespace",
			options: RunOptionsScan{NoCache: true, Namespace: "repo"},
			args:    []string{tmpDir},
			wantErr: "at the same time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScanArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyScanFlags(t *testing.T) {
	base := &config.Config{}
	config.ApplyDefaults(base)
	base.Scan.Workers = 4
	base.Cache.Namespace = "from-config"

	options := &RunOptionsScan{
		Workers:  16,
		Timeout:  time.Minute,
		Findings: []string{"F024"},
		NoCache:  true,
		Token:    "secret",
	}
	flags := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.Duration("timeout", 0, "")
	flags.StringSlice("finding", nil, "")
	flags.String("token", "", "")
	require.NoError(t, flags.Parse([]string{"--workers", "16", "--finding", "F024", "--token", "secret"}))

	got := applyScanFlags(base, options, flags)

	assert.Equal(t, 16, got.Scan.Workers)
	assert.Equal(t, config.DefaultTimeout, got.Scan.Timeout)
	assert.Equal(t, []string{"F024"}, got.Scan.Findings)
	assert.Equal(t, "from-config", got.Cache.Namespace)
	assert.True(t, got.Cache.Disabled)
	assert.Equal(t, "secret", got.Upload.Token)

	// the loaded configuration stays untouched
	assert.Equal(t, 4, base.Scan.Workers)
	assert.False(t, base.Cache.Disabled)
}

func TestShouldUpload(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, shouldUpload(cfg, &RunOptionsScan{}))
	assert.True(t, shouldUpload(cfg, &RunOptionsScan{Destination: "s3://bucket"}))
	assert.True(t, shouldUpload(cfg, &RunOptionsScan{Token: "t"}))

	cfg.S3.Bucket = "results"
	assert.True(t, shouldUpload(cfg, &RunOptionsScan{}))
}

func TestWriteReport(t *testing.T) {
	vulns := []vulnerability.Vulnerability{{
		Finding: finding.F024,
		Title:   finding.MustGet(finding.F024).Label(),
		Path:    "infra/main.tf",
		Line:    4,
		Column:  19,
		CWE:     []string{"CWE-284"},
	}}

	var stdout bytes.Buffer
	require.NoError(t, writeReport(&stdout, "", output.FormatCSV, vulns, "dev"))
	assert.Contains(t, stdout.String(), "infra/main.tf,4:19,CWE-284")

	dir := t.TempDir()
	require.NoError(t, writeReport(&stdout, dir, output.FormatSARIF, vulns, "dev"))
	matches, err := filepath.Glob(filepath.Join(dir, "skims-*.sarif"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	file := filepath.Join(dir, "nested", "report.csv")
	require.NoError(t, writeReport(&stdout, file, output.FormatCSV, vulns, "dev"))
	assert.FileExists(t, file)
}

func TestReportName(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	assert.Equal(t, "skims-20240301T123005Z.sarif", reportName(output.FormatSARIF, now))
}
