package persist

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/skims/internal/config"
)

// HclogAdapter adapts an hclog.Logger to the resty logger interface.
type HclogAdapter struct {
	logger hclog.Logger
}

// NewHclogAdapter creates a new adapter that forwards messages to logger.
func NewHclogAdapter(logger hclog.Logger) resty.Logger {
	return &HclogAdapter{logger: logger}
}

// Errorf logs a message at error level.
func (a *HclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

// Warnf logs a message at warning level.
func (a *HclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

// Infof logs a message at info level.
func (a *HclogAdapter) Infof(format string, v ...interface{}) {
	a.logger.Info(fmt.Sprintf(format, v...))
}

// Debugf logs a message at debug level.
func (a *HclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

// NewRestyClient builds a resty client from the http_client settings.
func NewRestyClient(logger hclog.Logger, cfg config.RestyHTTPClientConfig) *resty.Client {
	client := resty.New()
	if logger != nil {
		client.SetLogger(NewHclogAdapter(logger))
	}

	client.
		SetDebug(cfg.Debug).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime).
		SetTimeout(cfg.Timeout).
		SetTLSClientConfig(cfg.TLSClientConfig)
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}
	return client
}

// HTTPSink posts every batch as JSON to an endpoint.
type HTTPSink struct {
	httpc    *resty.Client
	endpoint string
}

// NewHTTPSink creates a sink posting to endpoint. A non-empty token is
// sent in the Authorization header.
func NewHTTPSink(endpoint, token string, cfg config.RestyHTTPClientConfig, logger hclog.Logger) *HTTPSink {
	httpc := NewRestyClient(logger, cfg)
	httpc.SetHeader("Content-Type", "application/json")
	if token != "" {
		httpc.SetHeader("Authorization", fmt.Sprintf("Token %s", token))
	}
	return &HTTPSink{httpc: httpc, endpoint: endpoint}
}

func (s *HTTPSink) Name() string {
	return "http"
}

// Persist posts b and fails on any non-2xx answer.
func (s *HTTPSink) Persist(ctx context.Context, b Batch) error {
	resp, err := s.httpc.R().
		SetContext(ctx).
		SetBody(b).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("failed to post batch: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("endpoint answered %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
