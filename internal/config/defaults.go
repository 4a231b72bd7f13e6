package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	DefaultContextLines = 10
	DefaultMaxColumns   = 72
	DefaultTimeout      = 30 * time.Minute
	DefaultNamespace    = "default"
	DefaultMemoryItems  = 1024
	DefaultBatchSize    = 200
)

// ApplyDefaults fills every unset value of cfg.
func ApplyDefaults(cfg *Config) {
	cfg.Scan.Workers = SetThen(cfg.Scan.Workers, runtime.NumCPU())
	cfg.Scan.Timeout = SetThen(cfg.Scan.Timeout, DefaultTimeout)
	cfg.Scan.ContextLines = SetThen(cfg.Scan.ContextLines, DefaultContextLines)
	cfg.Scan.MaxColumns = SetThen(cfg.Scan.MaxColumns, DefaultMaxColumns)

	cfg.Cache.Root = SetThen(cfg.Cache.Root, defaultCacheRoot())
	cfg.Cache.MemoryEntries = SetThen(cfg.Cache.MemoryEntries, DefaultMemoryItems)

	httpDefaults := DefaultHTTPConfig()
	cfg.HTTPClient.RetryCount = SetThen(cfg.HTTPClient.RetryCount, httpDefaults.RetryCount)
	cfg.HTTPClient.RetryWaitTime = SetThen(cfg.HTTPClient.RetryWaitTime, httpDefaults.RetryWaitTime)
	cfg.HTTPClient.RetryMaxWaitTime = SetThen(cfg.HTTPClient.RetryMaxWaitTime, httpDefaults.RetryMaxWaitTime)
	cfg.HTTPClient.Timeout = SetThen(cfg.HTTPClient.Timeout, httpDefaults.Timeout)

	cfg.Upload.BatchSize = SetThen(cfg.Upload.BatchSize, DefaultBatchSize)
}

// defaultCacheRoot prefers SKIMS_CACHE_DIR, then the user cache folder.
func defaultCacheRoot() string {
	if dir := os.Getenv("SKIMS_CACHE_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "skims")
	}
	return filepath.Join(os.TempDir(), "skims-cache")
}
