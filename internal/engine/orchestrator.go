package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tempest/internal/domain"
	"tempest/internal/oms"
	"tempest/internal/risk"
	"tempest/internal/store"
)

// Prefetcher warms the weather cache for one entity. Implemented by
// weather.Cache.
type Prefetcher interface {
	Refresh(ctx context.Context, entityCode string) error
}

// RunRecorder archives a completed run. Implemented by store.RunArchive.
type RunRecorder interface {
	RecordRun(startedAt time.Time, cycles []store.CycleRecord) error
}

// RunResult aggregates one orchestrator pass over every entity. Immutable
// once returned.
type RunResult struct {
	StartedAt        time.Time
	Duration         time.Duration
	TotalEntities    int
	CitiesSucceeded  int
	CitiesFailed     int
	SignalsGenerated int
	OrdersSubmitted  int
	Cycles           []CycleResult
	Errors           []string
}

// Orchestrator runs trading cycles across all entities: weather prefetch in
// parallel, order execution strictly sequential. All entities share one risk
// budget and one order store, so concurrent submission would race on
// exposure accounting and intent-key creation.
type Orchestrator struct {
	entities []domain.Entity
	cycle    *Cycle
	orders   *oms.Store
	breaker  *risk.CircuitBreaker
	prefetch Prefetcher
	recorder RunRecorder // nil when running without an archive

	maxAggregate    float64
	prefetchWorkers int
	log             *slog.Logger
}

// OrchestratorParams wires an Orchestrator.
type OrchestratorParams struct {
	Entities        []domain.Entity
	Cycle           *Cycle
	Orders          *oms.Store
	Breaker         *risk.CircuitBreaker
	Prefetch        Prefetcher
	Recorder        RunRecorder
	MaxAggregate    float64
	PrefetchWorkers int
	Log             *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given entities.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	workers := p.PrefetchWorkers
	if workers <= 0 {
		workers = 5
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		entities:        p.Entities,
		cycle:           p.Cycle,
		orders:          p.Orders,
		breaker:         p.Breaker,
		prefetch:        p.Prefetch,
		recorder:        p.Recorder,
		maxAggregate:    p.MaxAggregate,
		prefetchWorkers: workers,
		log:             log,
	}
}

// PrefetchWeather fans weather fetches for every entity across a bounded
// worker pool and waits for all of them. Each entity's result is reported in
// the map; a failure never blocks or fails sibling fetches.
func (o *Orchestrator) PrefetchWeather(ctx context.Context) map[string]bool {
	results := make(map[string]bool, len(o.entities))
	var mu sync.Mutex
	var wg sync.WaitGroup

	jobs := make(chan domain.Entity)
	for i := 0; i < o.prefetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entity := range jobs {
				err := o.prefetch.Refresh(ctx, entity.Code)
				if err != nil {
					o.log.Warn("weather prefetch failed", "entity", entity.Code, "err", err)
				}
				mu.Lock()
				results[entity.Code] = err == nil
				mu.Unlock()
			}
		}()
	}
	for _, entity := range o.entities {
		jobs <- entity
	}
	close(jobs)
	wg.Wait()

	return results
}

// RunAllEntities executes one trading cycle per entity. Before any entity is
// processed it applies the aggregate risk gate: if open-order notional
// exceeds the account cap or the breaker is paused, the run aborts with zero
// cycles attempted and every city reported failed. Cycles then run strictly
// sequentially; an unexpected panic in one entity's cycle becomes a failed
// cycle result for that entity only, and the run always completes.
func (o *Orchestrator) RunAllEntities(ctx context.Context, quantity int, prefetch bool) RunResult {
	res := RunResult{
		StartedAt:     time.Now().UTC(),
		TotalEntities: len(o.entities),
	}

	if prefetch {
		fetched := o.PrefetchWeather(ctx)
		ok := 0
		for _, v := range fetched {
			if v {
				ok++
			}
		}
		o.log.Info("weather prefetch complete", "ok", ok, "total", len(fetched))
	}

	if paused, reason := o.breaker.IsPaused(); paused {
		res.CitiesFailed = len(o.entities)
		res.Errors = append(res.Errors, fmt.Sprintf("run aborted: circuit breaker paused: %s", reason))
		res.Duration = time.Since(res.StartedAt)
		return res
	}
	if open := o.orders.OpenNotional(); open > o.maxAggregate {
		res.CitiesFailed = len(o.entities)
		res.Errors = append(res.Errors,
			fmt.Sprintf("run aborted: open notional $%.2f exceeds aggregate cap $%.2f", open, o.maxAggregate))
		res.Duration = time.Since(res.StartedAt)
		return res
	}

	for _, entity := range o.entities {
		cycleRes := o.runEntity(ctx, entity, quantity)
		res.Cycles = append(res.Cycles, cycleRes)
		res.SignalsGenerated += cycleRes.SignalsGenerated
		res.OrdersSubmitted += cycleRes.OrdersSubmitted
		if cycleRes.Success() {
			res.CitiesSucceeded++
		} else {
			res.CitiesFailed++
			res.Errors = append(res.Errors, cycleRes.Errors...)
		}
	}

	res.Duration = time.Since(res.StartedAt)
	o.record(res)

	o.log.Info("run complete",
		"entities", res.TotalEntities,
		"succeeded", res.CitiesSucceeded,
		"failed", res.CitiesFailed,
		"orders", res.OrdersSubmitted,
		"duration", res.Duration,
	)
	return res
}

// runEntity contains one cycle's panic boundary.
func (o *Orchestrator) runEntity(ctx context.Context, entity domain.Entity, quantity int) (res CycleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("cycle panicked", "entity", entity.Code, "panic", r)
			res = CycleResult{
				Entity: entity.Code,
				Errors: []string{fmt.Sprintf("unexpected failure: %v", r)},
			}
		}
	}()
	return o.cycle.Run(ctx, entity, quantity)
}

// record archives the run best-effort.
func (o *Orchestrator) record(res RunResult) {
	if o.recorder == nil {
		return
	}
	records := make([]store.CycleRecord, 0, len(res.Cycles))
	for _, c := range res.Cycles {
		records = append(records, store.CycleRecord{
			Entity:           c.Entity,
			Success:          c.Success(),
			WeatherFetched:   c.WeatherFetched,
			MarketsFetched:   c.MarketsFetched,
			SignalsGenerated: c.SignalsGenerated,
			GatesPassed:      c.GatesPassed,
			OrdersSubmitted:  c.OrdersSubmitted,
			ErrorCount:       len(c.Errors),
		})
	}
	if err := o.recorder.RecordRun(res.StartedAt, records); err != nil {
		o.log.Warn("archiving run failed", "err", err)
	}
}
