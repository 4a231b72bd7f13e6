package version

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/skims/internal/graph"
)

var (
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application",
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo(cmd.OutOrStdout())
		},
	}
}

// printVersionInfo prints the build information and the graph schema the
// cache entries are written with.
func printVersionInfo(w io.Writer) {
	fmt.Fprintf(w, "Core Version: v%s\n", CoreVersion)
	fmt.Fprintf(w, "Graph Schema: %d\n", graph.SchemaVersion)
	fmt.Fprintf(w, "Go Version: %s\n", GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
}
