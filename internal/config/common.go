package config

import (
	"crypto/tls"
	"fmt"
	"time"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int           // Number of retries for failed requests
	RetryWaitTime    time.Duration // Wait time between retries
	RetryMaxWaitTime time.Duration // Maximum wait time for retries
	Timeout          time.Duration // Timeout for requests
	TLSClientConfig  *tls.Config   // TLS configuration
	Proxy            string        // Proxy address
}

// RestyHTTPClientConfig holds additional configuration settings for the Resty HTTP client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool // Flag to enable Resty debug mode
}

// DefaultHTTPConfig returns a base configuration for HTTP clients with default values.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       5,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 2 * time.Second,
		Timeout:          10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// RestyConfig builds the Resty client settings from the http_client section.
func RestyConfig(cfg *Config) RestyHTTPClientConfig {
	rc := RestyHTTPClientConfig{BaseHTTPConfig: DefaultHTTPConfig()}
	if cfg == nil {
		return rc
	}
	h := cfg.HTTPClient
	rc.Debug = h.Debug
	rc.RetryCount = SetThen(h.RetryCount, rc.RetryCount)
	rc.RetryWaitTime = SetThen(h.RetryWaitTime, rc.RetryWaitTime)
	rc.RetryMaxWaitTime = SetThen(h.RetryMaxWaitTime, rc.RetryMaxWaitTime)
	rc.Timeout = SetThen(h.Timeout, rc.Timeout)
	rc.TLSClientConfig.InsecureSkipVerify = !GetBoolValue(cfg, "HTTPClient.TLSClientConfig.Verify", true)
	if h.Proxy.Host != "" && h.Proxy.Port != 0 {
		rc.Proxy = fmt.Sprintf("%s:%d", h.Proxy.Host, h.Proxy.Port)
	}
	return rc
}
