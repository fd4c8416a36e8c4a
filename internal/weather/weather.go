// Package weather provides the forecast provider contract and a TTL cache
// that tracks staleness for trading decisions.
package weather

import (
	"context"

	"tempest/internal/domain"
)

// Provider fetches a fresh forecast snapshot for one entity.
type Provider interface {
	Fetch(ctx context.Context, entityCode string) (domain.WeatherContext, error)
}
