package scanner

import (
	"time"

	"go.uber.org/atomic"

	"github.com/scan-io-git/skims/internal/finding"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// counters are updated concurrently by the workers of a run.
type counters struct {
	discovered       atomic.Int64
	skipped          atomic.Int64
	parsed           atomic.Int64
	cached           atomic.Int64
	failed           atomic.Int64
	detectorRuns     atomic.Int64
	detectorCached   atomic.Int64
	detectorFailures atomic.Int64
}

// Summary reports the counts of a finished run.
type Summary struct {
	RunID            string
	Root             string
	Status           string
	TimedOut         bool
	Discovered       int64
	Skipped          int64
	Parsed           int64
	Cached           int64
	Failed           int64
	DetectorRuns     int64
	DetectorCached   int64
	DetectorFailures int64
	Findings         map[finding.ID]int
	Vulnerabilities  int
	Duration         time.Duration
}

func (c *counters) summary() Summary {
	return Summary{
		Discovered:       c.discovered.Load(),
		Skipped:          c.skipped.Load(),
		Parsed:           c.parsed.Load(),
		Cached:           c.cached.Load(),
		Failed:           c.failed.Load(),
		DetectorRuns:     c.detectorRuns.Load(),
		DetectorCached:   c.detectorCached.Load(),
		DetectorFailures: c.detectorFailures.Load(),
	}
}

// status derives the run status: failed when no file could be analysed,
// partial after a timeout or any file or detector failure.
func (s Summary) status() string {
	switch {
	case s.Discovered > 0 && s.Failed == s.Discovered:
		return StatusFailed
	case s.TimedOut || s.Failed > 0 || s.DetectorFailures > 0:
		return StatusPartial
	}
	return StatusSuccess
}
