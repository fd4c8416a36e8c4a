package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempest/internal/domain"
)

type namedStrategy struct{ name string }

func (s *namedStrategy) Name() string { return s.name }
func (s *namedStrategy) Evaluate(context.Context, domain.WeatherContext, domain.Market) (domain.Signal, error) {
	return domain.Signal{Decision: domain.DecisionHold}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&namedStrategy{name: "beta"})
	r.Register(&namedStrategy{name: "alpha"})

	s, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", s.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, r.List())
}
