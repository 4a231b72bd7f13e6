package scan

import (
	"fmt"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/output"
	"github.com/scan-io-git/skims/pkg/shared/files"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(options *RunOptionsScan, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one target path must be specified")
	}

	if err := files.ValidateDir(args[0]); err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}

	if options.Workers < 0 {
		return fmt.Errorf("the 'workers' flag must be a positive integer")
	}

	if options.Timeout < 0 {
		return fmt.Errorf("the 'timeout' flag cannot be negative")
	}

	if _, err := output.ParseFormat(options.Format); err != nil {
		return err
	}

	for _, name := range options.Findings {
		if _, err := finding.Parse(name); err != nil {
			return err
		}
	}

	if options.NoCache && options.Namespace != "" {
		return fmt.Errorf("you cannot use 'no-cache' and 'namespace' flags at the same time")
	}

	return nil
}
