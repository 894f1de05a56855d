package defi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/web3-frozen/near-dashboard/internal/metrics"
	"github.com/web3-frozen/near-dashboard/internal/source/llama"
)

var errNotFetched = errors.New("not fetched")

// Pipeline fetches every qualifying protocol for a chain and merges the
// results. A protocol that fails in any way is dropped; the run itself
// never fails.
type Pipeline struct {
	src     Source
	logger  *slog.Logger
	chain   string
	window  time.Duration
	workers int
}

type Option func(*Pipeline)

func WithChain(chain string) Option { return func(p *Pipeline) { p.chain = chain } }

func WithWindow(d time.Duration) Option { return func(p *Pipeline) { p.window = d } }

// WithWorkers bounds the number of concurrent protocol fetches.
func WithWorkers(n int) Option { return func(p *Pipeline) { p.workers = n } }

func New(src Source, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:     src,
		logger:  logger,
		chain:   DefaultChain,
		window:  DefaultWindow,
		workers: 4,
	}
	for _, o := range opts {
		o(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Chain returns the chain the pipeline aggregates.
func (p *Pipeline) Chain() string { return p.chain }

// Run fetches the directory and aggregates every qualifying protocol.
func (p *Pipeline) Run(ctx context.Context) Result {
	dir, err := p.src.Protocols(ctx)
	if err != nil {
		p.logger.Error("defi directory fetch failed", "chain", p.chain, "error", err)
		return Result{Protocols: []ProtocolTVL{}, Tokens: []TokenTVL{}, Failures: []Failure{}, DirectoryErr: err.Error()}
	}
	return p.Aggregate(ctx, Qualifying(dir, p.chain))
}

// Qualifying keeps directory entries listed on chain that are not
// centralized exchanges, in directory order.
func Qualifying(dir []llama.Protocol, chain string) []Protocol {
	out := make([]Protocol, 0)
	for _, d := range dir {
		if d.Category == CategoryCEX || !slices.Contains(d.Chains, chain) {
			continue
		}
		out = append(out, Protocol{Name: d.Name, Slug: d.Slug, Category: d.Category, Chains: d.Chains})
	}
	return out
}

// outcome is the result of fetching and normalizing one protocol.
type outcome struct {
	protocols []ProtocolTVL
	tokens    []TokenTVL
	err       error
}

// Aggregate fetches protocols concurrently and concatenates their rows in
// input order, independent of completion order, then applies the window.
func (p *Pipeline) Aggregate(ctx context.Context, protocols []Protocol) Result {
	outcomes := make([]outcome, len(protocols))
	for i := range outcomes {
		outcomes[i].err = errNotFetched
	}

	pool := pond.NewPool(p.workers)
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for i, proto := range protocols {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				outcomes[i].err = err
				return
			}
			outcomes[i] = p.fetch(groupCtx, proto)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		p.logger.Warn("defi fetch group ended with error", "error", err)
	}
	pool.StopAndWait()

	res := Result{
		Protocols:  []ProtocolTVL{},
		Tokens:     []TokenTVL{},
		Failures:   []Failure{},
		Considered: len(protocols),
	}
	for i, o := range outcomes {
		if o.err != nil {
			proto := protocols[i]
			p.logger.Warn("defi protocol dropped", "protocol", proto.Name, "slug", proto.Slug, "error", o.err)
			metrics.DefiProtocolFailures.WithLabelValues(proto.Name).Inc()
			res.Failures = append(res.Failures, Failure{Protocol: proto.Name, Slug: proto.Slug, Error: o.err.Error()})
			continue
		}
		res.Protocols = append(res.Protocols, o.protocols...)
		res.Tokens = append(res.Tokens, o.tokens...)
	}

	res = applyWindow(res, p.window)

	metrics.DefiProtocols.WithLabelValues("ok").Set(float64(len(protocols) - len(res.Failures)))
	metrics.DefiProtocols.WithLabelValues("failed").Set(float64(len(res.Failures)))
	metrics.DefiRows.WithLabelValues("protocols").Set(float64(len(res.Protocols)))
	metrics.DefiRows.WithLabelValues("tokens").Set(float64(len(res.Tokens)))
	return res
}

// fetch turns every failure mode of one protocol, panics included, into
// an error outcome.
func (p *Pipeline) fetch(ctx context.Context, proto Protocol) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	detail, err := p.src.Protocol(ctx, proto.Slug)
	if err != nil {
		return outcome{err: err}
	}
	if detail == nil {
		return outcome{err: errors.New("empty protocol detail")}
	}

	ct, err := detail.Chain(p.chain)
	if err != nil {
		return outcome{err: err}
	}
	rows, err := protocolRows(proto, ct)
	if err != nil {
		return outcome{err: err}
	}
	o.protocols = rows

	if proto.Category == CategoryDEX {
		pts, err := detail.Tokens(p.chain)
		if err != nil {
			return outcome{err: err}
		}
		toks, err := tokenRows(proto, pts)
		if err != nil {
			return outcome{err: err}
		}
		o.tokens = toks
	}
	return o
}

// applyWindow keeps rows dated on or after the latest protocol-level date
// minus window. The anchor is global across protocols. Without any
// protocol-level rows there is no anchor and both tables come back empty.
func applyWindow(res Result, window time.Duration) Result {
	if len(res.Protocols) == 0 {
		res.Tokens = []TokenTVL{}
		return res
	}

	end := res.Protocols[0].Date
	for _, r := range res.Protocols[1:] {
		if r.Date.After(end) {
			end = r.Date
		}
	}
	start := end.Add(-window)

	protos := make([]ProtocolTVL, 0, len(res.Protocols))
	for _, r := range res.Protocols {
		if !r.Date.Before(start) {
			protos = append(protos, r)
		}
	}
	toks := make([]TokenTVL, 0, len(res.Tokens))
	for _, r := range res.Tokens {
		if !r.Date.Before(start) {
			toks = append(toks, r)
		}
	}

	res.Protocols = protos
	res.Tokens = toks
	res.Start = start
	res.End = end
	return res
}
