package venue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tempest/internal/domain"
)

// Compile-time interface check.
var _ Client = (*Simulator)(nil)

// Simulator implements the Client interface in memory for paper runs and
// tests. Orders fill immediately and completely at their limit price.
type Simulator struct {
	mu      sync.Mutex
	markets map[string][]domain.Market // series ticker -> markets
	fills   []domain.Fill
	orders  []OrderRequest
}

// NewSimulator creates an empty simulated venue.
func NewSimulator() *Simulator {
	return &Simulator{markets: make(map[string][]domain.Market)}
}

// Name returns "simulator".
func (s *Simulator) Name() string {
	return "simulator"
}

// SetMarkets installs the markets returned for a series.
func (s *Simulator) SetMarkets(seriesTicker string, markets []domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets[seriesTicker] = markets
}

// GetMarkets returns the installed markets for the series.
func (s *Simulator) GetMarkets(_ context.Context, seriesTicker string) ([]domain.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Market, len(s.markets[seriesTicker]))
	copy(out, s.markets[seriesTicker])
	return out, nil
}

// CreateOrder records the order and synthesizes an immediate complete fill
// at the limit price.
func (s *Simulator) CreateOrder(_ context.Context, req OrderRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	externalID := uuid.NewString()
	s.orders = append(s.orders, req)
	s.fills = append(s.fills, domain.Fill{
		ExternalOrderID: externalID,
		TradeID:         uuid.NewString(),
		Ticker:          req.Ticker,
		Side:            req.Side,
		Quantity:        req.Quantity,
		Price:           req.LimitPrice,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	})
	return externalID, nil
}

// GetFills returns all synthesized fills. The since filter is left to the
// reconciler, matching the venue API's permissive behaviour.
func (s *Simulator) GetFills(_ context.Context, _ time.Time) ([]domain.Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Fill, len(s.fills))
	copy(out, s.fills)
	return out, nil
}

// Orders returns every order submitted so far. Test helper.
func (s *Simulator) Orders() []OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OrderRequest, len(s.orders))
	copy(out, s.orders)
	return out
}
