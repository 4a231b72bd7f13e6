package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/skims/cmd/cache"
	"github.com/scan-io-git/skims/cmd/findings"
	"github.com/scan-io-git/skims/cmd/scan"
	"github.com/scan-io-git/skims/cmd/version"
	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "skims [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Skims is a static analysis engine for code and infrastructure.",
		Long: `Skims parses source code, Terraform, CloudFormation and Dockerfiles into
property graphs and runs vulnerability detectors over them.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $SKIMS_CONFIG)")
	rootCmd.AddCommand(
		version.NewVersionCmd(),
		findings.NewFindingsCmd(),
		cache.NewCacheCmd(),
		scan.ScanCmd,
	)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func initConfig() {
	var err error

	AppConfig, err = config.NewConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v\n", err)
		os.Exit(errors.ExitConfig)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitConfig)
	}

	scan.Init(AppConfig)
	cache.Init(AppConfig)
}
