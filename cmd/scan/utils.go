package scan

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/output"
	"github.com/scan-io-git/skims/internal/vulnerability"
	"github.com/scan-io-git/skims/pkg/shared/files"
)

// applyScanFlags returns a copy of cfg with every flag the user set applied
// on top of it.
func applyScanFlags(cfg *config.Config, options *RunOptionsScan, flags *pflag.FlagSet) *config.Config {
	changed := flags.Changed
	out := &config.Config{}
	if cfg != nil {
		*out = *cfg
	} else {
		config.ApplyDefaults(out)
	}

	if changed("workers") && options.Workers > 0 {
		out.Scan.Workers = options.Workers
	}
	if changed("timeout") {
		out.Scan.Timeout = options.Timeout
	}
	if changed("include") {
		out.Scan.Include = options.Include
	}
	if changed("exclude") {
		out.Scan.Exclude = options.Exclude
	}
	if changed("finding") {
		out.Scan.Findings = options.Findings
	}
	if changed("namespace") {
		out.Cache.Namespace = options.Namespace
	}
	if options.NoCache {
		out.Cache.Disabled = true
	}
	if changed("token") {
		out.Upload.Token = options.Token
	}
	return out
}

// shouldUpload reports whether results are handed to a persistence sink.
func shouldUpload(cfg *config.Config, options *RunOptionsScan) bool {
	return options.Destination != "" || options.Token != "" || cfg.Upload.Endpoint != "" || cfg.S3.Bucket != ""
}

// reportName returns the default report file name used when the output
// path is a folder.
func reportName(f output.Format, now time.Time) string {
	return fmt.Sprintf("skims-%s.%s", now.UTC().Format("20060102T150405Z"), f.Extension())
}

// writeReport renders the report to outputPath, or to stdout when it is empty.
func writeReport(stdout io.Writer, outputPath string, f output.Format, vulns []vulnerability.Vulnerability, version string) error {
	if outputPath == "" {
		data, err := output.Encode(f, vulns, version)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	path, _, err := files.DetermineFileFullPath(outputPath, reportName(f, time.Now()))
	if err != nil {
		return err
	}
	return output.WriteReport(path, f, vulns, version)
}
