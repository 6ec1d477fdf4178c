package locate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Locator fans a logical query out to a fixed set of sources and merges the
// outcomes. One source's failure never suppresses another source's results.
type Locator struct {
	sources  map[Jurisdiction]Source
	order    []Jurisdiction
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// Option configures a Locator.
type Option func(*Locator)

// WithTimeout sets the default per-source timeout used when a query does
// not supply its own.
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) { l.timeout = d }
}

// WithLogger sets the diagnostic sink. Per-source loggers are derived from
// it with a "source" attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) { l.logger = logger }
}

// WithObserver attaches a per-source query observer (metrics).
func WithObserver(o Observer) Option {
	return func(l *Locator) { l.observer = o }
}

// New creates a Locator over the given sources. The source set is fixed for
// the Locator's lifetime.
func New(sources []Source, opts ...Option) *Locator {
	l := &Locator{
		sources: make(map[Jurisdiction]Source, len(sources)),
		logger:  slog.Default(),
	}
	for _, src := range sources {
		j := src.Jurisdiction()
		if _, dup := l.sources[j]; dup {
			continue
		}
		l.sources[j] = src
		l.order = append(l.order, j)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Jurisdictions returns the configured jurisdictions in registration order.
func (l *Locator) Jurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, len(l.order))
	copy(out, l.order)
	return out
}

// QueryOptions narrows one aggregate call. The zero value queries every
// configured source with the Locator's default timeout.
type QueryOptions struct {
	// Jurisdictions selects a subset of the configured sources; empty
	// means all of them. Duplicates are ignored.
	Jurisdictions []Jurisdiction

	// Timeout bounds each selected source's network exchange. Zero falls
	// back to the Locator default.
	Timeout time.Duration
}

// QueryByID runs an inmate-ID query against the selected sources. A
// malformed ID or an unconfigured jurisdiction fails the whole call before
// any network work; per-source runtime failures are collected in the
// Result instead.
func (l *Locator) QueryByID(ctx context.Context, id string, opts QueryOptions) (Result, error) {
	selected, err := l.selectSources(opts.Jurisdictions)
	if err != nil {
		return Result{}, err
	}
	for _, src := range selected {
		if err := src.ValidateID(id); err != nil {
			return Result{}, err
		}
	}

	timeout := l.pickTimeout(opts.Timeout)
	return l.fanOut(ctx, selected, func(ctx context.Context, src Source) ([]Record, error) {
		return src.QueryByID(ctx, id, timeout)
	}), nil
}

// QueryByName runs a name query against the selected sources. Empty name
// components are passed through as wildcards.
func (l *Locator) QueryByName(ctx context.Context, first, last string, opts QueryOptions) (Result, error) {
	selected, err := l.selectSources(opts.Jurisdictions)
	if err != nil {
		return Result{}, err
	}

	timeout := l.pickTimeout(opts.Timeout)
	return l.fanOut(ctx, selected, func(ctx context.Context, src Source) ([]Record, error) {
		return src.QueryByName(ctx, first, last, timeout)
	}), nil
}

func (l *Locator) pickTimeout(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return l.timeout
}

// selectSources resolves, deduplicates, and validates the requested
// jurisdiction set. This runs synchronously and consumes no timeout budget.
func (l *Locator) selectSources(js []Jurisdiction) ([]Source, error) {
	if len(js) == 0 {
		js = l.order
	}
	seen := make(map[Jurisdiction]bool, len(js))
	selected := make([]Source, 0, len(js))
	for _, j := range js {
		if seen[j] {
			continue
		}
		seen[j] = true
		src, ok := l.sources[j]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJurisdiction, j)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

type outcome struct {
	jurisdiction Jurisdiction
	records      []Record
	err          error
	elapsed      time.Duration
}

// fanOut runs one goroutine per source and joins them at a single barrier.
// Sources run to their own completion or timeout; an early failure does not
// cancel siblings. Outcomes are collected in completion order. The observer
// and logger are only invoked after the barrier, from the collecting
// goroutine, so implementations need no internal synchronization.
func (l *Locator) fanOut(ctx context.Context, selected []Source, call func(context.Context, Source) ([]Record, error)) Result {
	outcomes := make(chan outcome, len(selected))

	var g errgroup.Group
	for _, src := range selected {
		g.Go(func() error {
			start := time.Now()
			records, err := call(ctx, src)
			outcomes <- outcome{
				jurisdiction: src.Jurisdiction(),
				records:      records,
				err:          err,
				elapsed:      time.Since(start),
			}
			return nil
		})
	}
	g.Wait()
	close(outcomes)

	var res Result
	for o := range outcomes {
		if l.observer != nil {
			l.observer.ObserveQuery(o.jurisdiction, o.err, o.elapsed)
		}
		if o.err != nil {
			l.logger.Error("source query failed", "source", o.jurisdiction, "error", o.err)
			res.Errors = append(res.Errors, QueryError{Jurisdiction: o.jurisdiction, Err: o.err})
			continue
		}
		res.Records = append(res.Records, o.records...)
	}
	return res
}
