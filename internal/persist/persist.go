// Package persist hands scan results to external collaborators in batches.
package persist

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/git"
	"github.com/scan-io-git/skims/internal/vulnerability"
)

const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// Batch is the unit handed to a Sink.
type Batch struct {
	RunID           string                        `json:"run_id"`
	Index           int                           `json:"index"`
	Total           int                           `json:"total"`
	Repository      *git.Metadata                 `json:"repository,omitempty"`
	Vulnerabilities []vulnerability.Vulnerability `json:"vulnerabilities"`
}

// Sink accepts batches and reports success or failure for each of them.
type Sink interface {
	Name() string
	Persist(ctx context.Context, b Batch) error
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	Index   int    `json:"index"`
	Size    int    `json:"size"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report collects the per-batch outcomes of an upload.
type Report struct {
	Sink    string
	Batches []BatchResult
	errs    *multierror.Error
}

// Failed returns the number of batches that were not accepted.
func (r *Report) Failed() int {
	return lo.CountBy(r.Batches, func(b BatchResult) bool { return b.Status == StatusFailed })
}

// Err returns every batch error, or nil.
func (r *Report) Err() error {
	return r.errs.ErrorOrNil()
}

// Split cuts vulns into batches of at most size records. An empty input
// still yields one empty batch so a clean run is reported.
func Split(vulns []vulnerability.Vulnerability, size int) [][]vulnerability.Vulnerability {
	if len(vulns) == 0 {
		return [][]vulnerability.Vulnerability{{}}
	}
	if size < 1 {
		size = len(vulns)
	}
	return lo.Chunk(vulns, size)
}

// Upload sends vulns to sink in batches. Batch failures do not stop the
// upload; a cancelled context fails the remaining batches.
func Upload(ctx context.Context, sink Sink, runID string, meta *git.Metadata, vulns []vulnerability.Vulnerability, batchSize int, logger hclog.Logger) *Report {
	chunks := Split(vulns, batchSize)
	report := &Report{Sink: sink.Name()}

	logger.Info("upload starting", "sink", sink.Name(), "vulnerabilities", len(vulns), "batches", len(chunks))
	for i, chunk := range chunks {
		res := BatchResult{Index: i, Size: len(chunk), Status: StatusOK}

		err := ctx.Err()
		if err == nil {
			err = sink.Persist(ctx, Batch{
				RunID:           runID,
				Index:           i,
				Total:           len(chunks),
				Repository:      meta,
				Vulnerabilities: chunk,
			})
		}
		if err != nil {
			res.Status = StatusFailed
			res.Message = err.Error()
			report.errs = multierror.Append(report.errs, fmt.Errorf("batch %d: %w", i, err))
			logger.Error("batch upload failed", "sink", sink.Name(), "batch", i, "error", err)
		} else {
			logger.Debug("batch uploaded", "sink", sink.Name(), "batch", i, "size", len(chunk))
		}
		report.Batches = append(report.Batches, res)
	}
	logger.Info("upload finished", "sink", sink.Name(), "failed", report.Failed())
	return report
}

// New picks a sink for destination: http(s) URLs post to an endpoint and
// s3://bucket/prefix URLs upload objects. An empty destination falls back
// to the upload endpoint, then to the s3 bucket of cfg.
func New(destination string, cfg *config.Config, logger hclog.Logger) (Sink, error) {
	if destination == "" {
		switch {
		case cfg.Upload.Endpoint != "":
			destination = cfg.Upload.Endpoint
		case cfg.S3.Bucket != "":
			destination = "s3://" + strings.Trim(cfg.S3.Bucket+"/"+cfg.S3.Prefix, "/")
		default:
			return nil, fmt.Errorf("no upload destination configured")
		}
	}

	u, err := url.Parse(destination)
	if err != nil {
		return nil, fmt.Errorf("invalid destination %q: %w", destination, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPSink(destination, cfg.Upload.Token, config.RestyConfig(cfg), logger), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("destination %q has no bucket", destination)
		}
		return NewS3Sink(cfg.S3.Region, u.Host, strings.Trim(u.Path, "/"), logger)
	default:
		return nil, fmt.Errorf("unsupported destination scheme %q", u.Scheme)
	}
}
