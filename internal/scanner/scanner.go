// Package scanner orchestrates one analysis run: it discovers the files
// under a root, builds their graphs with bounded concurrency, runs the
// detector methods and merges the per-finding results.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/skims/internal/cache"
	"github.com/scan-io-git/skims/internal/config"
	"github.com/scan-io-git/skims/internal/detectors"
	"github.com/scan-io-git/skims/internal/finding"
	"github.com/scan-io-git/skims/internal/graph"
	"github.com/scan-io-git/skims/internal/language"
	"github.com/scan-io-git/skims/internal/snippet"
	"github.com/scan-io-git/skims/internal/symbolic"
	"github.com/scan-io-git/skims/internal/syntax"
	"github.com/scan-io-git/skims/internal/vulnerability"
	serrors "github.com/scan-io-git/skims/pkg/shared/errors"
)

var errBinary = errors.New("binary content")

// Scanner represents the configuration and behavior of one analysis root.
type Scanner struct {
	root         string
	scan         config.Scan
	methods      []detectors.Method
	policy       finding.Policy
	cache        *cache.Cache
	parser       *syntax.Parser
	builder      *graph.Builder
	reducer      *symbolic.Reducer
	materializer *vulnerability.Materializer
	logger       hclog.Logger
}

// Result is the outcome of a run. Err aggregates the file and detector
// failures the run recovered from.
type Result struct {
	Summary         Summary
	Vulnerabilities []vulnerability.Vulnerability
	Err             error
}

// New creates a Scanner for root with the provided configuration.
func New(root string, cfg *config.Config, c *cache.Cache, logger hclog.Logger) (*Scanner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache is nil")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}

	ids := make([]finding.ID, 0, len(cfg.Scan.Findings))
	for _, name := range cfg.Scan.Findings {
		id, err := finding.Parse(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	opts := snippet.Options{
		Context:    config.SetThen(cfg.Scan.ContextLines, config.DefaultContextLines),
		MaxColumns: config.SetThen(cfg.Scan.MaxColumns, config.DefaultMaxColumns),
		Wrap:       cfg.Scan.Wrap,
	}

	return &Scanner{
		root:         abs,
		scan:         cfg.Scan,
		methods:      detectors.Select(ids),
		policy:       finding.NewPolicy(cfg.Policy),
		cache:        c,
		parser:       syntax.NewParser(logger.Named("syntax")),
		builder:      graph.NewBuilder(logger.Named("graph")),
		reducer:      symbolic.NewReducer(logger.Named("symbolic")),
		materializer: vulnerability.NewMaterializer(abs, opts, logger.Named("vulnerability")),
		logger:       logger,
	}, nil
}

// failures collects recovered errors from concurrent workers.
type failures struct {
	mu  sync.Mutex
	err *multierror.Error
}

func (f *failures) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = multierror.Append(f.err, err)
}

func (f *failures) result() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err.ErrorOrNil()
}

// Run analyses every routable file under the root. Only an unusable root
// fails the run; everything else degrades into Result.Err and the summary.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	sources, skipped, err := Discover(ctx, s.root, s.scan.Include, s.scan.Exclude)
	if err != nil {
		return nil, err
	}

	// the deadline covers parsing and detection
	if s.scan.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scan.Timeout)
		defer cancel()
	}

	workers := config.SetThen(s.scan.Workers, 1)
	s.logger.Info("scan starting", "run", runID, "root", s.root, "total", len(sources), "goroutines", workers)

	stats := &counters{}
	stats.discovered.Store(int64(len(sources)))
	stats.skipped.Store(int64(skipped))
	errs := &failures{}

	db := s.build(ctx, sources, workers, stats, errs)
	stores := s.detect(ctx, db, workers, stats, errs)

	merged := stores.Merge()
	summary := stats.summary()
	summary.RunID = runID
	summary.Root = s.root
	summary.Vulnerabilities = len(merged)
	summary.Findings = map[finding.ID]int{}
	for id, vs := range lo.GroupBy(merged, func(v vulnerability.Vulnerability) finding.ID { return v.Finding }) {
		summary.Findings[id] = len(vs)
	}
	if err := ctx.Err(); err != nil {
		summary.TimedOut = true
		if errors.Is(err, context.DeadlineExceeded) {
			err = serrors.ErrTimeout
		}
		errs.add(err)
		s.logger.Warn("scan interrupted, reporting partial results", "error", err)
	}
	summary.Duration = time.Since(start)
	summary.Status = summary.status()

	s.logger.Info("scan finished",
		"run", runID,
		"status", summary.Status,
		"files", summary.Discovered,
		"failed", summary.Failed,
		"vulnerabilities", summary.Vulnerabilities,
		"duration", summary.Duration.String(),
	)

	return &Result{Summary: summary, Vulnerabilities: merged, Err: errs.result()}, nil
}

// build parses every source into a sealed shard. Shards are cached by
// content hash.
func (s *Scanner) build(ctx context.Context, sources []Source, workers int, stats *counters, errs *failures) *graph.DB {
	db := graph.NewDB()
	var g errgroup.Group
	g.SetLimit(workers)

	for _, src := range sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			shard, err := s.load(ctx, src, stats)
			switch {
			case errors.Is(err, errBinary):
				stats.skipped.Inc()
				s.logger.Debug("skipping binary file", "path", src.Path)
			case err != nil:
				if ctx.Err() != nil {
					return nil
				}
				stats.failed.Inc()
				errs.add(err)
				s.logger.Warn("failed to analyse file", "path", src.Path, "error", err)
			case shard.Partial && shard.Len() == 0:
				stats.failed.Inc()
				errs.add(serrors.NewParseError(src.Path, src.Language.String(), errors.New("empty syntax tree")))
			default:
				db.Add(shard)
			}
			return nil
		})
	}
	g.Wait()
	return db
}

func (s *Scanner) load(ctx context.Context, src Source, stats *counters) (*graph.Shard, error) {
	content, err := os.ReadFile(src.Abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", src.Path, err)
	}
	if isBinary(content) {
		return nil, errBinary
	}
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	key := cache.NewKey("graph", "shard", src.Path, hash, src.Language.String(), graph.SchemaVersion)
	parsed := false
	shard, err := cache.Do(ctx, s.cache, key, cache.NoExpiry, graph.Codec{}, func(ctx context.Context) (*graph.Shard, error) {
		parsed = true
		return s.analyse(ctx, src, hash, content)
	})
	if err != nil {
		return nil, err
	}
	if parsed {
		stats.parsed.Inc()
	} else {
		stats.cached.Inc()
	}
	return shard, nil
}

// analyse runs parse, graph building and step reduction in order.
func (s *Scanner) analyse(ctx context.Context, src Source, hash string, content []byte) (*graph.Shard, error) {
	tree := s.parser.Parse(ctx, src.Language, src.Path, content)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shard := s.builder.Build(src.Language, hash, tree)
	if src.Language.Symbolic() {
		s.reducer.Reduce(shard)
	}
	shard.Seal()
	return shard, nil
}

// detect runs the selected methods on every shard of db and materializes
// their hits into one store per finding.
func (s *Scanner) detect(ctx context.Context, db *graph.DB, workers int, stats *counters, errs *failures) *vulnerability.Stores {
	stores := vulnerability.NewStores()
	langs := detectors.Languages(s.methods)
	if len(langs) == 0 {
		return stores
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for shard := range db.Shards(langs...) {
		g.Go(func() error {
			for _, m := range s.methods {
				if m.Language != shard.Language {
					continue
				}
				if ctx.Err() != nil {
					return nil
				}
				hits, err := s.runMethod(ctx, m, shard, stats)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					stats.detectorFailures.Inc()
					errs.add(err)
					s.logger.Error("detector failed", "finding", m.Finding, "method", m.Name, "path", shard.Path, "error", err)
					continue
				}
				store := stores.For(m.Finding)
				for _, hit := range hits {
					if v, ok := s.materializer.Materialize(shard, m, hit); ok {
						store.Store(v)
					}
				}
			}
			return nil
		})
	}
	g.Wait()
	return stores
}

func (s *Scanner) runMethod(ctx context.Context, m detectors.Method, shard *graph.Shard, stats *counters) ([]detectors.Hit, error) {
	key := s.detectorKey(m, shard.Hash, shard.Language)
	ran := false
	hits, err := cache.Do(ctx, s.cache, key, s.cache.TTL(), hitsCodec{shard: shard}, func(ctx context.Context) ([]detectors.Hit, error) {
		ran = true
		return detectors.Run(ctx, m, &detectors.Context{Shard: shard, Policy: s.policy})
	})
	if err != nil {
		return nil, err
	}
	if ran {
		stats.detectorRuns.Inc()
	} else {
		stats.detectorCached.Inc()
	}
	return hits, nil
}

func (s *Scanner) detectorKey(m detectors.Method, hash string, lang language.Language) cache.Key {
	return cache.NewKey("detectors", m.Name, hash, lang.String()).
		With("policy", s.policy.Fingerprint()).
		With("schema", graph.SchemaVersion)
}

// hitsCodec rejects cached hits that do not address a node of shard, so a
// corrupted entry is recomputed instead of materialized.
type hitsCodec struct {
	cache.MsgpackCodec[[]detectors.Hit]
	shard *graph.Shard
}

func (c hitsCodec) Decode(data []byte) ([]detectors.Hit, error) {
	hits, err := c.MsgpackCodec.Decode(data)
	if err != nil {
		return nil, err
	}
	for _, hit := range hits {
		if !c.shard.Valid(hit.Node) {
			return nil, fmt.Errorf("hit node %d is outside of shard %q", hit.Node, c.shard.Path)
		}
	}
	return hits, nil
}
