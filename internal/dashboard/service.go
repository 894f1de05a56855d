// Package dashboard assembles the dashboard pages from upstream sources.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/cache"
	"github.com/web3-frozen/near-dashboard/internal/config"
	"github.com/web3-frozen/near-dashboard/internal/defi"
	"github.com/web3-frozen/near-dashboard/internal/metrics"
	"github.com/web3-frozen/near-dashboard/internal/source/flipside"
	"github.com/web3-frozen/near-dashboard/internal/source/nearrpc"
)

// ErrUnknownPage is returned for a slug that names no page.
var ErrUnknownPage = errors.New("unknown page")

// Cache sources.
const (
	sourceFlipside = "flipside"
	sourceNearRPC  = "nearrpc"
	sourceLlama    = "llama"
)

// QueryRunner returns the latest result set of a saved analytics query.
type QueryRunner interface {
	Latest(ctx context.Context, queryID string) ([]flipside.Row, error)
}

type ValidatorSource interface {
	Validators(ctx context.Context) ([]nearrpc.Validator, error)
}

// DeFiRunner runs the DeFi aggregation pipeline.
type DeFiRunner interface {
	Run(ctx context.Context) defi.Result
	Chain() string
}

type Options struct {
	Queries      config.Queries
	ReferenceDEX string
	TTL          time.Duration
}

// Service builds pages on demand. Upstream results are memoized in the
// cache; page assembly itself is cheap and always recomputed.
type Service struct {
	queries    QueryRunner
	validators ValidatorSource
	defi       DeFiRunner
	cache      cache.Cache
	logger     *slog.Logger
	opts       Options
	now        func() time.Time
}

func New(q QueryRunner, v ValidatorSource, d DeFiRunner, c cache.Cache, logger *slog.Logger, opts Options) *Service {
	if opts.ReferenceDEX == "" {
		opts.ReferenceDEX = defi.DefaultReferenceDEX
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &Service{
		queries:    q,
		validators: v,
		defi:       d,
		cache:      c,
		logger:     logger,
		opts:       opts,
		now:        time.Now,
	}
}

// Page builds the page named slug. Upstream failures degrade the page but
// never produce an error; only an unknown slug does.
func (s *Service) Page(ctx context.Context, slug string) (*Page, error) {
	meta, ok := metaFor(slug)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
	}

	start := time.Now()
	p := &Page{Meta: meta}
	switch slug {
	case Activity:
		s.activity(ctx, p)
	case Performance:
		s.performance(ctx, p)
	case Staking:
		s.staking(ctx, p)
	case DeFi:
		s.defiPage(ctx, p)
	}
	p.GeneratedAt = s.now().UTC()

	status := "ok"
	if p.Degraded {
		status = "degraded"
		s.logger.Warn("page degraded", "page", slug, "errors", p.Errors)
	}
	metrics.PageBuildTotal.WithLabelValues(slug, status).Inc()
	metrics.PageBuildDuration.WithLabelValues(slug).Observe(time.Since(start).Seconds())
	return p, nil
}

// Refresh drops the cached upstream results behind slug, or behind every
// page when slug is empty, and returns the keys it removed.
func (s *Service) Refresh(ctx context.Context, slug string) ([]string, error) {
	var keys []string
	if slug == "" {
		for _, m := range pages {
			keys = append(keys, s.keys(m.Slug)...)
		}
	} else {
		if _, ok := metaFor(slug); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPage, slug)
		}
		keys = s.keys(slug)
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		return nil, fmt.Errorf("invalidate %s: %w", slug, err)
	}
	metrics.CacheInvalidationsTotal.Inc()
	s.logger.Info("cache invalidated", "page", slug, "keys", len(keys))
	return keys, nil
}

func (s *Service) keys(slug string) []string {
	q := s.opts.Queries
	switch slug {
	case Activity:
		return []string{cache.Key(sourceFlipside, q.Activity.Scorecard), cache.Key(sourceFlipside, q.Activity.Chart)}
	case Performance:
		return []string{cache.Key(sourceFlipside, q.Performance.Scorecard), cache.Key(sourceFlipside, q.Performance.Chart)}
	case Staking:
		return []string{cache.Key(sourceFlipside, q.Staking.Supply), cache.Key(sourceNearRPC, "validators")}
	case DeFi:
		return []string{cache.Key(sourceLlama, s.defi.Chain())}
	}
	return nil
}

func (s *Service) query(ctx context.Context, queryID string) ([]flipside.Row, error) {
	return cache.Load(ctx, s.cache, cache.Key(sourceFlipside, queryID), s.opts.TTL,
		func(ctx context.Context) ([]flipside.Row, error) {
			return s.queries.Latest(ctx, queryID)
		})
}

func (s *Service) currentValidators(ctx context.Context) ([]nearrpc.Validator, error) {
	return cache.Load(ctx, s.cache, cache.Key(sourceNearRPC, "validators"), s.opts.TTL, s.validators.Validators)
}

func (s *Service) defiResult(ctx context.Context) defi.Result {
	res, _ := cache.Load(ctx, s.cache, cache.Key(sourceLlama, s.defi.Chain()), s.opts.TTL,
		func(ctx context.Context) (defi.Result, error) {
			return s.defi.Run(ctx), nil
		})
	return res
}
