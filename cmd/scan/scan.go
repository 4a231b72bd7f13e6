package scan

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/skims/cmd/version"
	"github.com/scan-io-git/skims/internal/cache"
	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/git"
	"github.com/scan-io-git/skims/internal/logger"
	"github.com/scan-io-git/skims/internal/output"
	"github.com/scan-io-git/skims/internal/persist"
	"github.com/scan-io-git/skims/internal/scanner"
	"github.com/scan-io-git/skims/pkg/shared/errors"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	Workers     int
	Timeout     time.Duration
	OutputPath  string
	Format      string
	Include     []string
	Exclude     []string
	Findings    []string
	Namespace   string
	NoCache     bool
	Token       string
	Destination string
}

var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning a repository and printing the CSV report
  skims scan /path/to/repository

  # Writing a SARIF report with 8 workers
  skims scan -j 8 --format sarif --output /tmp/results.sarif /path/to/repository

  # Running only the network and IAM findings on the infrastructure folder
  skims scan --finding F024 --finding F031 --include infra /path/to/repository

  # Scanning without the cache and with a 10 minute deadline
  skims scan --no-cache --timeout 10m /path/to/repository

  # Uploading the results to a collector
  skims scan --destination https://collector.example.com/api/batches --token $SKIMS_TOKEN /path/to/repository

  # Uploading the results to S3
  skims scan --destination s3://my-bucket/skims /path/to/repository`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [-j WORKERS] [--format/-f csv|sarif] [--output/-o PATH] [--finding ID]... [--destination URL] PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Analyse a source tree and report vulnerabilities",
	Long: `Analyse every routable file of a source tree, report the vulnerabilities found
as CSV or SARIF and optionally upload them in batches.

Parsed files and detector results are cached per content hash, so a second run
over an unchanged tree only renders the report.`,
	RunE: runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	lg := logger.NewLogger(AppConfig, "core-scan")

	if err := validateScanArgs(&scanOptions, args); err != nil {
		lg.Error("invalid scan arguments", "error", err)
		return errors.NewFatalError(errors.ExitConfig, "invalid scan arguments", err)
	}
	target := args[0]

	cfg := applyScanFlags(AppConfig, &scanOptions, cmd.Flags())
	if err := config.ValidateConfig(cfg); err != nil {
		lg.Error("invalid configuration", "error", err)
		return errors.NewFatalError(errors.ExitConfig, "invalid configuration", err)
	}

	format, err := output.ParseFormat(scanOptions.Format)
	if err != nil {
		return errors.NewFatalError(errors.ExitConfig, "invalid report format", err)
	}

	meta, err := git.CollectMetadata(target)
	if err != nil {
		lg.Debug("repository metadata is not available", "target", target, "error", err)
	}
	meta.FillFromCI(nil)
	if cfg.Cache.Namespace == "" {
		cfg.Cache.Namespace = meta.Namespace()
	}

	c, err := cache.New(afero.NewOsFs(), cfg.Cache, lg.Named("cache"))
	if err != nil {
		lg.Error("failed to open cache", "error", err)
		return errors.NewFatalError(errors.ExitConfig, "failed to open cache", err)
	}

	s, err := scanner.New(target, cfg, c, lg)
	if err != nil {
		return errors.NewFatalError(errors.ExitConfig, "failed to create scanner", err)
	}

	result, err := s.Run(cmd.Context())
	if err != nil {
		lg.Error("scan failed", "error", err)
		return errors.NewFatalError(errors.ExitConfig, "scan failed", err)
	}
	if result.Err != nil {
		lg.Warn("scan finished with errors", "error", result.Err)
	}

	if err := writeReport(cmd.OutOrStdout(), scanOptions.OutputPath, format, result.Vulnerabilities, version.CoreVersion); err != nil {
		lg.Error("failed to write report", "error", err)
		return err
	}
	output.WriteSummary(cmd.ErrOrStderr(), result.Summary)

	if shouldUpload(cfg, &scanOptions) {
		sink, err := persist.New(scanOptions.Destination, cfg, lg.Named("persist"))
		if err != nil {
			return errors.NewFatalError(errors.ExitConfig, "invalid upload destination", err)
		}
		report := persist.Upload(cmd.Context(), sink, result.Summary.RunID, meta, result.Vulnerabilities, cfg.Upload.BatchSize, lg)
		if err := report.Err(); err != nil {
			return fmt.Errorf("%d of %d batches were not uploaded: %w", report.Failed(), len(report.Batches), err)
		}
	}

	if result.Summary.Status == scanner.StatusFailed {
		return fmt.Errorf("no file could be analysed: %w", result.Err)
	}

	lg.Info("scan command completed", "status", result.Summary.Status)
	return nil
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().IntVarP(&scanOptions.Workers, "workers", "j", 0, "Number of concurrent workers. Defaults to the number of CPUs.")
	ScanCmd.Flags().DurationVar(&scanOptions.Timeout, "timeout", 0, "Deadline for parsing and detection, e.g. 10m.")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the report file or directory. The report is printed to stdout when empty.")
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", "csv", "Report format: csv or sarif.")
	ScanCmd.Flags().StringSliceVar(&scanOptions.Include, "include", nil, "Only analyse paths matching these patterns.")
	ScanCmd.Flags().StringSliceVar(&scanOptions.Exclude, "exclude", nil, "Skip paths matching these patterns.")
	ScanCmd.Flags().StringSliceVar(&scanOptions.Findings, "finding", nil, "Only run the detectors of these findings, e.g. F024.")
	ScanCmd.Flags().StringVar(&scanOptions.Namespace, "namespace", "", "Cache namespace. Defaults to the repository name.")
	ScanCmd.Flags().BoolVar(&scanOptions.NoCache, "no-cache", false, "Disable the result cache.")
	ScanCmd.Flags().StringVar(&scanOptions.Token, "token", "", "Token used to authenticate uploads.")
	ScanCmd.Flags().StringVar(&scanOptions.Destination, "destination", "", "Upload destination: an http(s) endpoint or s3://bucket/prefix.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
