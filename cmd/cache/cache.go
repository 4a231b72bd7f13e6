package cache

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	resultcache "github.com/scan-io-git/skims/internal/cache"
	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/logger"
	"github.com/scan-io-git/skims/internal/output"
	"github.com/scan-io-git/skims/pkg/shared/errors"
)

var (
	AppConfig  *config.Config
	clearNS    string
	clearAll   bool
	exampleUse = `  # Listing the cached entries per namespace
  skims cache stats

  # Dropping the entries of one repository
  skims cache clear --namespace acme_infra

  # Dropping every entry
  skims cache clear --all`
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "cache [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Example:               exampleUse,
		Short:                 "Inspect or clear the result cache",
	}

	statsCmd := &cobra.Command{
		Use:                   "stats",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the cached entries per namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache()
			if err != nil {
				return err
			}
			ns, err := c.DiskStats()
			if err != nil {
				return err
			}
			output.WriteCacheStats(cmd.OutOrStdout(), ns)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:                   "clear {--namespace NAME | --all}",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateClearArgs(clearNS, clearAll); err != nil {
				return errors.NewFatalError(errors.ExitConfig, "invalid cache arguments", err)
			}
			c, err := openCache()
			if err != nil {
				return err
			}
			if err := c.Clear(clearNS); err != nil {
				return err
			}
			logger.NewLogger(AppConfig, "core-cache").Info("cache cleared", "namespace", clearNS, "all", clearAll)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&clearNS, "namespace", "", "Namespace to clear.")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Clear every namespace.")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}

// validateClearArgs requires exactly one of namespace and all.
func validateClearArgs(namespace string, all bool) error {
	if namespace == "" && !all {
		return fmt.Errorf("either 'namespace' or 'all' flag must be specified")
	}
	if namespace != "" && all {
		return fmt.Errorf("you cannot use 'namespace' and 'all' flags at the same time")
	}
	if err := config.ValidateNamespace(namespace); err != nil {
		return err
	}
	return nil
}

func openCache() (*resultcache.Cache, error) {
	cfg := AppConfig
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	c, err := resultcache.New(afero.NewOsFs(), cfg.Cache, logger.NewLogger(cfg, "core-cache"))
	if err != nil {
		return nil, errors.NewFatalError(errors.ExitConfig, "failed to open cache", err)
	}
	return c, nil
}
