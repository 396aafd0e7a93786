// Package pipeline drives the periodic fetch-normalize-install refresh loop
// across all configured feed sources.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/mudseason/road-hazard-service/internal/observability"
)

// Source is one feed adapter. Fetch returns the candidate records for the
// current tick; an error means the whole source degraded to empty this tick.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Candidate, error)
}

// Publisher receives each installed incident snapshot. Optional.
type Publisher interface {
	PublishIncidents(ctx context.Context, incidents []domain.Incident) error
}

// ErrAllSourcesFailed is returned by RunOnce when every feed failed in a
// tick. The previous snapshot, if any, is retained.
var ErrAllSourcesFailed = errors.New("all feed sources failed")

// Poller owns the pipeline output: the current incident snapshot plus the
// loading and error flags the UI shell reads. Refresh ticks may overlap; a
// generation counter gives last-writer-wins so a slow stale tick can never
// clobber a newer snapshot.
type Poller struct {
	sources    []Source
	normalizer *domain.Normalizer
	publisher  Publisher
	interval   time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	kick chan struct{}

	mu           sync.RWMutex
	snapshot     []domain.Incident
	inFlight     int
	lastErr      string
	installedGen uint64
	listeners    []func([]domain.Incident)

	gen   atomic.Uint64
	ready atomic.Bool
}

// New creates a Poller. publisher may be nil; clock may be nil for the real
// clock.
func New(sources []Source, normalizer *domain.Normalizer, publisher Publisher,
	interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		sources:    sources,
		normalizer: normalizer,
		publisher:  publisher,
		interval:   interval,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		kick:       make(chan struct{}, 1),
	}
}

// Run executes the refresh loop until the context is cancelled: one
// immediate tick, then one per interval, plus any manual Refresh kicks.
// Each tick runs in its own goroutine so a slow feed cannot delay the next
// tick; Run waits for in-flight ticks before returning.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "sources", len(p.sources), "interval", p.interval)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	launch := func() {
		gen := p.beginTick()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.runTick(ctx, gen); err != nil && ctx.Err() == nil {
				p.logger.Error("refresh tick failed", "error", err, "generation", gen)
			}
		}()
	}

	launch()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			wg.Wait()
			return nil
		case <-ticker.Chan():
			launch()
		case <-p.kick:
			launch()
		}
	}
}

// RunOnce executes a single synchronous refresh tick. Used by the one-shot
// CLI and by tests; Run is the production entry point.
func (p *Poller) RunOnce(ctx context.Context) error {
	return p.runTick(ctx, p.beginTick())
}

// Refresh requests an immediate out-of-band tick. Non-blocking; collapses
// into an already-pending request.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Snapshot returns the current incident list. The returned slice is a copy;
// incidents themselves are immutable.
func (p *Poller) Snapshot() []domain.Incident {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.snapshot)
}

// Loading reports whether any refresh tick is in flight.
func (p *Poller) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.inFlight > 0
}

// LastError returns the UI banner error: non-empty only while the most
// recent tick had every source fail. Cleared by the next success.
func (p *Poller) LastError() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Subscribe registers a listener called with each newly installed snapshot.
// Listeners run on the installing tick's goroutine; they must not block.
func (p *Poller) Subscribe(fn func([]domain.Incident)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// CheckReadiness returns nil once at least one refresh has succeeded.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful refresh yet")
	}
	return nil
}

func (p *Poller) beginTick() uint64 {
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	return p.gen.Add(1)
}

// runTick fans out all source fetches, normalizes the merged candidates,
// and installs the result as the current snapshot unless a newer tick beat
// it there.
func (p *Poller) runTick(ctx context.Context, gen uint64) error {
	start := p.clock.Now()

	type result struct {
		candidates []domain.Candidate
		err        error
	}
	results := make([]result, len(p.sources))

	var wg sync.WaitGroup
	for i, src := range p.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			candidates, err := src.Fetch(ctx)
			if err != nil {
				p.metrics.FetchFailures.WithLabelValues(src.Name()).Inc()
				p.logger.Warn("feed fetch failed", "source", src.Name(), "error", err)
				results[i] = result{err: err}
				return
			}
			p.metrics.FetchSuccess.WithLabelValues(src.Name()).Inc()
			p.metrics.RecordsEmitted.WithLabelValues(src.Name()).Add(float64(len(candidates)))
			results[i] = result{candidates: candidates}
		}(i, src)
	}
	wg.Wait()

	failed := 0
	var candidates []domain.Candidate
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		candidates = append(candidates, r.candidates...)
	}
	allFailed := len(p.sources) > 0 && failed == len(p.sources)

	incidents, stats := p.normalizer.Normalize(candidates)
	p.observeRejects(stats)

	installed, snap := p.install(gen, incidents, allFailed)
	if !installed {
		p.metrics.RefreshSuperseded.Inc()
		p.logger.Debug("refresh superseded", "generation", gen)
		return nil
	}

	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	if allFailed {
		p.metrics.AllSourcesFailed.Set(1)
		return ErrAllSourcesFailed
	}
	p.metrics.AllSourcesFailed.Set(0)
	p.metrics.IncidentsCurrent.Set(float64(len(snap)))

	p.logger.Info("refresh complete",
		"generation", gen,
		"incidents", len(snap),
		"sources_failed", failed,
		"rejected", stats.OutOfRegion+stats.Excluded+stats.MissingID,
	)

	if p.publisher != nil {
		if err := p.publisher.PublishIncidents(ctx, snap); err != nil {
			p.logger.Warn("incident publish failed", "error", err)
		}
	}
	return nil
}

// install makes the tick's output current under last-writer-wins. When every
// source failed the previous snapshot is retained (stale beats empty) and
// only the error flag changes. Returns the installed snapshot and whether
// this generation won.
func (p *Poller) install(gen uint64, incidents []domain.Incident, allFailed bool) (bool, []domain.Incident) {
	p.mu.Lock()
	p.inFlight--
	if gen <= p.installedGen {
		p.mu.Unlock()
		return false, nil
	}
	p.installedGen = gen

	var listeners []func([]domain.Incident)
	if allFailed {
		p.lastErr = ErrAllSourcesFailed.Error()
	} else {
		p.lastErr = ""
		p.snapshot = incidents
		p.ready.Store(true)
		listeners = slices.Clone(p.listeners)
	}
	snap := p.snapshot
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return true, snap
}

func (p *Poller) observeRejects(stats domain.RejectStats) {
	if stats.MissingID > 0 {
		p.metrics.RecordsRejected.WithLabelValues("missing_id").Add(float64(stats.MissingID))
	}
	if stats.OutOfRegion > 0 {
		p.metrics.RecordsRejected.WithLabelValues("out_of_region").Add(float64(stats.OutOfRegion))
	}
	if stats.Excluded > 0 {
		p.metrics.RecordsRejected.WithLabelValues("excluded").Add(float64(stats.Excluded))
	}
	if stats.GeometryCleared > 0 {
		p.metrics.RecordsRejected.WithLabelValues("geometry_cleared").Add(float64(stats.GeometryCleared))
	}
}
