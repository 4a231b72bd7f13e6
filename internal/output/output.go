// Package output renders the vulnerabilities of a run as CSV or SARIF and
// the run summary as a table.
package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/scan-io-git/skims/internal/vulnerability"
	"github.com/scan-io-git/skims/pkg/shared/files"
)

// Format selects the report encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatSARIF Format = "sarif"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatSARIF:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported report format %q", name)
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	return string(f)
}

// Encode renders vulns in format f.
func Encode(f Format, vulns []vulnerability.Vulnerability, version string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(&buf, vulns)
	case FormatSARIF:
		err = WriteSARIF(&buf, vulns, version)
	default:
		err = fmt.Errorf("unsupported report format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport renders vulns in format f to path.
func WriteReport(path string, f Format, vulns []vulnerability.Vulnerability, version string) error {
	data, err := Encode(f, vulns, version)
	if err != nil {
		return err
	}
	if err := files.WriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write report %q: %w", path, err)
	}
	return nil
}
