package findings

import (
	"github.com/spf13/cobra"

	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/output"
)

// NewFindingsCmd creates a new cobra.Command printing the finding catalog.
func NewFindingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "findings",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the catalog of findings the detectors report",
		Run: func(cmd *cobra.Command, args []string) {
			output.WriteCatalog(cmd.OutOrStdout(), finding.All())
		},
	}
}
