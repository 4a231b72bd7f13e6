package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/scan-io-git/skims/pkg/shared/files"
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-/]*$`)

// ValidateConfig checks if the configuration has valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML config: configuration object is nil")
	}
	if err := ValidateScanConfig(&cfg.Scan); err != nil {
		return fmt.Errorf("YAML config: scan directive is invalid: %w", err)
	}
	if err := ValidateCacheConfig(&cfg.Cache); err != nil {
		return fmt.Errorf("YAML config: cache directive is invalid: %w", err)
	}
	if err := ValidateHTTPConfig(&cfg.HTTPClient); err != nil {
		return fmt.Errorf("YAML config: http_client directive is invalid: %w", err)
	}
	if err := ValidateUploadConfig(&cfg.Upload); err != nil {
		return fmt.Errorf("YAML config: upload directive is invalid: %w", err)
	}
	return nil
}

// ValidateScanConfig checks the orchestrator settings.
func ValidateScanConfig(scan *Scan) error {
	if scan == nil {
		return fmt.Errorf("scan configuration is nil")
	}
	if scan.Workers < 1 || scan.Workers > 256 {
		return fmt.Errorf("workers must be between 1 and 256: %d", scan.Workers)
	}
	if err := validateDuration(scan.Timeout, "timeout", 24*time.Hour); err != nil {
		return err
	}
	if scan.ContextLines < 0 {
		return fmt.Errorf("context_lines cannot be negative: %d", scan.ContextLines)
	}
	if scan.MaxColumns < 8 {
		return fmt.Errorf("max_columns must be at least 8: %d", scan.MaxColumns)
	}
	return nil
}

// ValidateCacheConfig checks the cache settings and expands its root.
func ValidateCacheConfig(cache *Cache) error {
	if cache == nil {
		return fmt.Errorf("cache configuration is nil")
	}
	if err := ValidateNamespace(cache.Namespace); err != nil {
		return err
	}
	if cache.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative: %v", cache.TTL)
	}
	if cache.MemoryEntries < 0 {
		return fmt.Errorf("memory_entries cannot be negative: %d", cache.MemoryEntries)
	}
	if cache.Disabled {
		return nil
	}
	if strings.TrimSpace(cache.Root) == "" {
		return fmt.Errorf("root is empty")
	}
	root, err := files.ExpandPath(cache.Root)
	if err != nil {
		return fmt.Errorf("failed to expand root %q: %w", cache.Root, err)
	}
	cache.Root = root
	return nil
}

// ValidateNamespace accepts an empty namespace, which is resolved later from
// the repository name.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return nil
	}
	if !namespacePattern.MatchString(namespace) || strings.Contains(namespace, "..") {
		return fmt.Errorf("invalid namespace %q", namespace)
	}
	return nil
}

// ValidateHTTPConfig checks if the HTTP configurations have valid values.
func ValidateHTTPConfig(httpConfig *HTTPClient) error {
	if httpConfig == nil {
		return fmt.Errorf("HTTP configuration is nil")
	}
	if httpConfig.RetryCount < 0 || httpConfig.RetryCount > 20 {
		return fmt.Errorf("retry_count must be between 0 and 20: %d", httpConfig.RetryCount)
	}

	durations := map[string]time.Duration{
		"RetryMaxWaitTime": httpConfig.RetryMaxWaitTime,
		"RetryWaitTime":    httpConfig.RetryWaitTime,
		"Timeout":          httpConfig.Timeout,
	}
	for name, duration := range durations {
		if err := validateDuration(duration, name, 100*time.Second); err != nil {
			return err
		}
	}

	if err := validateProxy(&httpConfig.Proxy); err != nil {
		return err
	}

	return nil
}

// ValidateUploadConfig checks the persistence settings.
func ValidateUploadConfig(upload *Upload) error {
	if upload == nil {
		return fmt.Errorf("upload configuration is nil")
	}
	if upload.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive: %d", upload.BatchSize)
	}
	if upload.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(upload.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute URL", upload.Endpoint)
	}
	return nil
}

// validateDuration checks that a time.Duration is valid and within a specified maximum duration.
func validateDuration(d time.Duration, name string, max time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid duration for %s: %v cannot be negative", name, d)
	}
	if d > max {
		return fmt.Errorf("%s duration is too long: %v exceeds maximum of %v", name, d, max)
	}
	return nil
}

// validateProxy checks if the given Proxy settings are valid.
func validateProxy(proxy *Proxy) error {
	if proxy == nil {
		return fmt.Errorf("proxy configuration is nil")
	}

	// If host or port is not set, skip further validation
	if proxy.Host == "" || proxy.Port == 0 {
		return nil
	}

	if !strings.Contains(proxy.Host, "://") {
		proxy.Host = "http://" + proxy.Host
	}
	proxy.Host = strings.TrimRight(proxy.Host, "/")
	if _, err := url.Parse(proxy.Host); err != nil {
		return fmt.Errorf("invalid host URL: %w", err)
	}

	if proxy.Port < 1 || proxy.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", proxy.Port)
	}
	return nil
}
