package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempest/internal/domain"
	"tempest/internal/oms"
	"tempest/internal/risk"
	"tempest/internal/store"
)

type fakePrefetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakePrefetcher) Refresh(_ context.Context, entityCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, entityCode)
	if f.fail[entityCode] {
		return errors.New("provider down")
	}
	return nil
}

type fakeRecorder struct {
	startedAt time.Time
	records   []store.CycleRecord
	err       error
}

func (f *fakeRecorder) RecordRun(startedAt time.Time, cycles []store.CycleRecord) error {
	f.startedAt = startedAt
	f.records = cycles
	return f.err
}

// panicWeather panics for one entity and answers normally for the rest.
type panicWeather struct {
	panicFor string
}

func (p *panicWeather) GetWeather(_ context.Context, entityCode string) (domain.WeatherContext, bool, error) {
	if entityCode == p.panicFor {
		panic("nil map write")
	}
	return domain.WeatherContext{EntityCode: entityCode, ForecastHigh: 95}, false, nil
}

func threeEntities() []domain.Entity {
	return []domain.Entity{
		{Code: "NYC", City: "New York", Cluster: "northeast", Series: "HIGHNY"},
		{Code: "CHI", City: "Chicago", Cluster: "midwest", Series: "HIGHCHI"},
		{Code: "MIA", City: "Miami", Cluster: "southeast", Series: "HIGHMIA"},
	}
}

func newOrchestratorHarness(t *testing.T, weather WeatherSource) (*Orchestrator, *oms.Store, *fakeVenue, *risk.CircuitBreaker, *fakeRecorder) {
	t.Helper()
	orders := oms.NewStore(nil, discardLogger())
	vn := &fakeVenue{markets: oneMarket()}
	breaker := risk.NewCircuitBreaker(250, 5, 15, discardLogger())
	if weather == nil {
		weather = &fakeWeather{}
	}

	cycle, err := NewCycle(CycleParams{
		Mode:     domain.ModeShadow,
		Orders:   orders,
		Risk:     risk.NewCalculator(10000, 0.25, 0.50, 0.10, 100, discardLogger()),
		Breaker:  breaker,
		Strategy: &fakeStrategy{},
		Gates:    &fakeGates{pass: true},
		Venue:    vn,
		Weather:  weather,
		Entities: threeEntities(),
		Log:      discardLogger(),
	})
	require.NoError(t, err)

	recorder := &fakeRecorder{}
	orch := NewOrchestrator(OrchestratorParams{
		Entities:     threeEntities(),
		Cycle:        cycle,
		Orders:       orders,
		Breaker:      breaker,
		Prefetch:     &fakePrefetcher{},
		Recorder:     recorder,
		MaxAggregate: 2000,
		Log:          discardLogger(),
	})
	return orch, orders, vn, breaker, recorder
}

func TestPrefetchWeatherCoversAllEntities(t *testing.T) {
	orch, _, _, _, _ := newOrchestratorHarness(t, nil)
	pf := &fakePrefetcher{fail: map[string]bool{"CHI": true}}
	orch.prefetch = pf

	results := orch.PrefetchWeather(context.Background())

	require.Len(t, results, 3)
	assert.True(t, results["NYC"])
	assert.False(t, results["CHI"], "failed fetch reported, not dropped")
	assert.True(t, results["MIA"])
	assert.ElementsMatch(t, []string{"NYC", "CHI", "MIA"}, pf.calls)
}

func TestRunAbortsWhenAggregateRiskExceeded(t *testing.T) {
	orch, orders, vn, _, _ := newOrchestratorHarness(t, nil)
	orch.maxAggregate = 10

	// Seed an open order worth $65 against the $10 cap.
	sig := domain.Signal{Ticker: "HIGHNY-26SEP01-B85", Side: domain.SideYes, Decision: domain.DecisionBuy, PYes: 0.8, MaxPrice: 65}
	_, created := orders.SubmitOrder(context.Background(), sig, "NYC", "mkt-1", "2026-09-01", 100, 65)
	require.True(t, created)

	res := orch.RunAllEntities(context.Background(), 10, false)

	assert.Equal(t, 3, res.TotalEntities)
	assert.Equal(t, 3, res.CitiesFailed, "an aborted run fails every city")
	assert.Zero(t, res.CitiesSucceeded)
	assert.Empty(t, res.Cycles, "no cycle may be attempted after the aggregate gate trips")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "aggregate cap")
	assert.Zero(t, vn.createCalls)
}

func TestRunAbortsWhenBreakerPaused(t *testing.T) {
	orch, _, _, breaker, _ := newOrchestratorHarness(t, nil)
	breaker.CheckDailyLossLimit(-1000, 0)

	res := orch.RunAllEntities(context.Background(), 10, false)

	assert.Equal(t, 3, res.CitiesFailed)
	assert.Empty(t, res.Cycles)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "circuit breaker paused")
}

func TestPanicInOneEntityDoesNotAbortRun(t *testing.T) {
	orch, _, _, _, _ := newOrchestratorHarness(t, &panicWeather{panicFor: "CHI"})

	res := orch.RunAllEntities(context.Background(), 10, false)

	assert.Equal(t, 2, res.CitiesSucceeded)
	assert.Equal(t, 1, res.CitiesFailed)
	require.Len(t, res.Cycles, 3, "every entity still gets a cycle result")
	assert.Equal(t, "CHI", res.Cycles[1].Entity)
	require.Len(t, res.Cycles[1].Errors, 1)
	assert.Contains(t, res.Cycles[1].Errors[0], "unexpected failure")
}

func TestRunAggregatesAndArchives(t *testing.T) {
	orch, orders, _, _, recorder := newOrchestratorHarness(t, nil)

	res := orch.RunAllEntities(context.Background(), 10, true)

	assert.Equal(t, 3, res.CitiesSucceeded)
	assert.Zero(t, res.CitiesFailed)
	assert.Equal(t, 3, res.SignalsGenerated)
	assert.Equal(t, 3, res.OrdersSubmitted)
	assert.Len(t, orders.GetAllOrders(), 3)

	require.Len(t, recorder.records, 3)
	assert.Equal(t, "NYC", recorder.records[0].Entity)
	assert.True(t, recorder.records[0].Success)
	assert.Equal(t, res.StartedAt, recorder.startedAt)
}
