package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tempest/internal/domain"
	"tempest/internal/util"
)

// Compile-time interface check.
var _ Provider = (*RESTProvider)(nil)

// RESTProvider fetches forecasts from the weather service's HTTP API.
type RESTProvider struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewRESTProvider creates a forecast provider against the given base URL.
func NewRESTProvider(baseURL string, maxRetries int) *RESTProvider {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RESTProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: maxRetries,
	}
}

type forecastPayload struct {
	Station      string  `json:"station"`
	ForecastHigh float64 `json:"forecast_high"`
	ForecastLow  float64 `json:"forecast_low"`
	ObservedHigh float64 `json:"observed_high"`
	Humidity     float64 `json:"humidity"`
	WindSpeed    float64 `json:"wind_speed"`
}

// Fetch retrieves today's forecast for the entity's station.
func (p *RESTProvider) Fetch(ctx context.Context, entityCode string) (domain.WeatherContext, error) {
	endpoint := fmt.Sprintf("%s/v1/forecast?station=%s", p.baseURL, url.QueryEscape(entityCode))

	var payload forecastPayload
	err := util.Retry(ctx, p.maxRetries, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("weather: %s returned %d: %s", endpoint, resp.StatusCode, body)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return domain.WeatherContext{}, err
	}

	return domain.WeatherContext{
		EntityCode:   entityCode,
		ForecastHigh: payload.ForecastHigh,
		ForecastLow:  payload.ForecastLow,
		ObservedHigh: payload.ObservedHigh,
		Humidity:     payload.Humidity,
		WindSpeed:    payload.WindSpeed,
		FetchedAt:    time.Now().UTC(),
	}, nil
}
