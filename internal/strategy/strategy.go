// Package strategy defines the Strategy interface for signal generation and
// provides a Registry for managing multiple strategy implementations.
package strategy

import (
	"context"
	"sort"

	"tempest/internal/domain"
)

// Strategy turns a weather snapshot and one market into a trading signal.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Evaluate assesses a single market against the current weather
	// context and returns a signal. A HOLD decision means no trade.
	Evaluate(ctx context.Context, weather domain.WeatherContext, market domain.Market) (domain.Signal, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
