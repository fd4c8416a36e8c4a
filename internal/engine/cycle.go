// Package engine runs the per-entity trading cycle and the multi-entity
// orchestrator that coordinates cycles across all city markets.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tempest/internal/domain"
	"tempest/internal/gates"
	"tempest/internal/oms"
	"tempest/internal/risk"
	"tempest/internal/strategy"
	"tempest/internal/venue"
)

// WeatherSource is the weather lookup the cycle consumes. Implemented by
// weather.Cache.
type WeatherSource interface {
	GetWeather(ctx context.Context, entityCode string) (domain.WeatherContext, bool, error)
}

// CycleResult summarises one entity's trading cycle. Immutable once
// returned.
type CycleResult struct {
	Entity           string
	WeatherFetched   bool
	MarketsFetched   int
	SignalsGenerated int
	GatesPassed      int
	OrdersSubmitted  int
	Errors           []string
}

// Success is true iff the cycle recorded no errors.
func (r CycleResult) Success() bool {
	return len(r.Errors) == 0
}

// CycleParams wires a Cycle's collaborators.
type CycleParams struct {
	Mode     domain.TradingMode
	Orders   *oms.Store
	Risk     *risk.Calculator
	Breaker  *risk.CircuitBreaker
	Strategy strategy.Strategy
	Gates    gates.Checker
	Venue    venue.Client
	Weather  WeatherSource
	Entities []domain.Entity

	// Venue credentials, checked at construction for live mode.
	APIKey    string
	APISecret string

	Log *slog.Logger
}

// Cycle executes the per-entity pipeline: fetch, evaluate, gate, risk-check,
// submit. Every external failure is caught at its call site and appended to
// the cycle's error list; nothing unwinds out of Run.
type Cycle struct {
	mode          domain.TradingMode
	liveConfirmed bool

	orders   *oms.Store
	risk     *risk.Calculator
	breaker  *risk.CircuitBreaker
	strategy strategy.Strategy
	gates    gates.Checker
	venue    venue.Client
	weather  WeatherSource
	clusters map[string]string // entity code -> cluster
	log      *slog.Logger
}

// NewCycle validates the wiring and returns a ready Cycle. Constructing a
// live-mode cycle without venue credentials is a configuration error and
// fails immediately — the one failure in this package that is not converted
// into a result.
func NewCycle(p CycleParams) (*Cycle, error) {
	if p.Mode == domain.ModeLive && (p.APIKey == "" || p.APISecret == "") {
		return nil, fmt.Errorf("engine: live mode requires venue credentials")
	}
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	clusters := make(map[string]string, len(p.Entities))
	for _, e := range p.Entities {
		clusters[e.Code] = e.Cluster
	}
	return &Cycle{
		mode:     p.Mode,
		orders:   p.Orders,
		risk:     p.Risk,
		breaker:  p.Breaker,
		strategy: p.Strategy,
		gates:    p.Gates,
		venue:    p.Venue,
		weather:  p.Weather,
		clusters: clusters,
		log:      log,
	}, nil
}

// ConfirmLiveMode arms live trading. Until called, every live-mode
// submission is rejected locally and the venue is never contacted.
func (c *Cycle) ConfirmLiveMode() {
	c.liveConfirmed = true
	c.log.Warn("live trading confirmed: real orders will be placed")
}

// Run executes one trading cycle for the entity.
func (c *Cycle) Run(ctx context.Context, entity domain.Entity, quantity int) CycleResult {
	res := CycleResult{Entity: entity.Code}

	// A paused breaker means no attempt is made at all: the pause reason is
	// the cycle's sole error.
	if paused, reason := c.breaker.IsPaused(); paused {
		res.Errors = append(res.Errors, fmt.Sprintf("circuit breaker paused: %s", reason))
		return res
	}

	// Weather and market fetches are independent; either failure is
	// recorded without aborting the other or the rest of the cycle.
	weather, stale, err := c.weather.GetWeather(ctx, entity.Code)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("weather fetch: %v", err))
	} else {
		res.WeatherFetched = true
		if stale {
			c.log.Warn("trading on stale weather", "entity", entity.Code, "fetched_at", weather.FetchedAt)
		}
	}

	markets, err := c.venue.GetMarkets(ctx, entity.Series)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("market fetch: %v", err))
	} else {
		res.MarketsFetched = len(markets)
	}

	if !res.WeatherFetched || len(markets) == 0 {
		return res
	}

	for _, market := range markets {
		sig, err := c.strategy.Evaluate(ctx, weather, market)
		if err != nil {
			// One bad market never aborts the cycle.
			res.Errors = append(res.Errors, fmt.Sprintf("evaluate %s: %v", market.Ticker, err))
			continue
		}
		res.SignalsGenerated++

		if sig.Decision == domain.DecisionHold {
			continue
		}

		if ok, reasons := c.gates.CheckAllGates(sig, market, quantity); !ok {
			// A gate failure is a skip, not an error.
			c.log.Info("gates failed", "entity", entity.Code, "ticker", market.Ticker, "reasons", reasons)
			continue
		}
		res.GatesPassed++

		tradeRisk := float64(quantity) * float64(sig.MaxPrice) / 100.0
		if !c.risk.CheckTradeSize(tradeRisk, quantity) {
			continue
		}
		positions := c.openPositions()
		if !c.risk.CheckCityExposure(entity.Code, tradeRisk, positions) {
			continue
		}
		if !c.risk.CheckClusterExposure(entity.Cluster, tradeRisk, positions) {
			continue
		}

		if c.submit(ctx, sig, entity, market, quantity, &res) {
			res.OrdersSubmitted++
		}
	}

	return res
}

// submit places one order according to the trading mode. Returns true when
// an order was submitted (or simulated) this cycle.
func (c *Cycle) submit(ctx context.Context, sig domain.Signal, entity domain.Entity, market domain.Market, quantity int, res *CycleResult) bool {
	order, created := c.orders.SubmitOrder(ctx, sig, entity.Code, market.ID, market.EventDate, quantity, sig.MaxPrice)
	if !created {
		// Duplicate intent: the existing order stands, nothing new to do.
		return false
	}

	switch c.mode {
	case domain.ModeShadow:
		// Pure simulation: the venue is never contacted.
		c.orders.UpdateOrderStatus(ctx, order.IntentKey, domain.OrderStatusFilled, "", "simulated fill")
		return true

	case domain.ModeLive:
		if !c.liveConfirmed {
			c.orders.UpdateOrderStatus(ctx, order.IntentKey, domain.OrderStatusRejected, "",
				"live mode not confirmed: refusing to place real order")
			return false
		}
	}

	externalID, err := c.venue.CreateOrder(ctx, venue.OrderRequest{
		ClientOrderID: uuid.NewString(),
		Ticker:        sig.Ticker,
		MarketID:      market.ID,
		Side:          sig.Side,
		Action:        domain.ActionBuy,
		Quantity:      quantity,
		LimitPrice:    sig.MaxPrice,
	})
	if err != nil {
		c.orders.UpdateOrderStatus(ctx, order.IntentKey, domain.OrderStatusRejected, "", err.Error())
		c.breaker.TrackOrderRejects(time.Now().UTC())
		res.Errors = append(res.Errors, fmt.Sprintf("submit %s: %v", sig.Ticker, err))
		return false
	}

	c.orders.UpdateOrderStatus(ctx, order.IntentKey, domain.OrderStatusSubmitted, externalID, "")
	return true
}

// openPositions projects non-terminal orders into positions for exposure
// accounting. Filled quantity is valued at the average fill price, the open
// remainder at the limit price.
func (c *Cycle) openPositions() []domain.Position {
	var positions []domain.Position
	for _, o := range c.orders.GetAllOrders() {
		if o.Status.IsTerminal() {
			continue
		}
		if o.FilledQuantity > 0 {
			positions = append(positions, domain.Position{
				Ticker:     o.Ticker,
				EntityCode: o.EntityCode,
				Cluster:    c.clusterOf(o.EntityCode),
				Side:       o.Side,
				Quantity:   o.FilledQuantity,
				EntryPrice: int(o.AvgFillPrice + 0.5),
			})
		}
		if o.RemainingQuantity > 0 {
			positions = append(positions, domain.Position{
				Ticker:     o.Ticker,
				EntityCode: o.EntityCode,
				Cluster:    c.clusterOf(o.EntityCode),
				Side:       o.Side,
				Quantity:   o.RemainingQuantity,
				EntryPrice: o.LimitPrice,
			})
		}
	}
	return positions
}

func (c *Cycle) clusterOf(entityCode string) string {
	return c.clusters[entityCode]
}
