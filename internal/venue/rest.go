package venue

import (
	"bytes"
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
var _ Client = (*RESTClient)(nil)

// RESTClient talks to the exchange's HTTP API. The base URL selects the
// environment: production for live mode, the sandbox for demo mode. Requests
// are rate limited and retried with exponential backoff.
type RESTClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	limiter    *util.RateLimiter
	maxRetries int
}

// NewRESTClient creates a venue client against the given base URL.
func NewRESTClient(baseURL, apiKey, apiSecret string, rateLimitPerMin, maxRetries int) *RESTClient {
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 60
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RESTClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    util.NewRateLimiter(rateLimitPerMin),
		maxRetries: maxRetries,
	}
}

// Name returns "rest".
func (c *RESTClient) Name() string {
	return "rest"
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type marketPayload struct {
	ID        string  `json:"id"`
	Ticker    string  `json:"ticker"`
	Title     string  `json:"title"`
	EventDate string  `json:"event_date"`
	Strike    float64 `json:"cap_strike"`
	YesBid    int     `json:"yes_bid"`
	YesAsk    int     `json:"yes_ask"`
	NoBid     int     `json:"no_bid"`
	NoAsk     int     `json:"no_ask"`
	Volume    int     `json:"volume"`
}

type marketsResponse struct {
	Markets []marketPayload `json:"markets"`
}

type createOrderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Ticker        string `json:"ticker"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Count         int    `json:"count"`
	LimitPrice    int    `json:"limit_price"`
	Type          string `json:"type"`
}

type createOrderResponse struct {
	Order struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"order"`
}

type fillPayload struct {
	OrderID   string `json:"order_id"`
	TradeID   string `json:"trade_id"`
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	Count     int    `json:"count"`
	Price     int    `json:"price"`
	CreatedAt string `json:"created_time"`
}

type fillsResponse struct {
	Fills []fillPayload `json:"fills"`
}

// ---------------------------------------------------------------------------
// Client implementation
// ---------------------------------------------------------------------------

// GetMarkets returns the open markets for one series.
func (c *RESTClient) GetMarkets(ctx context.Context, seriesTicker string) ([]domain.Market, error) {
	q := url.Values{}
	q.Set("series_ticker", seriesTicker)
	q.Set("status", "open")

	var resp marketsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v2/markets?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching markets for %s: %w", seriesTicker, err)
	}

	markets := make([]domain.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		markets = append(markets, domain.Market{
			ID:        m.ID,
			Ticker:    m.Ticker,
			Title:     m.Title,
			EventDate: m.EventDate,
			Strike:    m.Strike,
			YesBid:    m.YesBid,
			YesAsk:    m.YesAsk,
			NoBid:     m.NoBid,
			NoAsk:     m.NoAsk,
			Volume:    m.Volume,
		})
	}
	return markets, nil
}

// CreateOrder submits a limit order and returns the venue's order ID.
func (c *RESTClient) CreateOrder(ctx context.Context, req OrderRequest) (string, error) {
	body := createOrderRequest{
		ClientOrderID: req.ClientOrderID,
		Ticker:        req.Ticker,
		Side:          string(req.Side),
		Action:        string(req.Action),
		Count:         req.Quantity,
		LimitPrice:    req.LimitPrice,
		Type:          "limit",
	}

	var resp createOrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v2/portfolio/orders", body, &resp); err != nil {
		return "", fmt.Errorf("creating order for %s: %w", req.Ticker, err)
	}
	if resp.Order.OrderID == "" {
		return "", fmt.Errorf("creating order for %s: venue returned no order id", req.Ticker)
	}
	return resp.Order.OrderID, nil
}

// GetFills returns fills created at or after since.
func (c *RESTClient) GetFills(ctx context.Context, since time.Time) ([]domain.Fill, error) {
	q := url.Values{}
	if !since.IsZero() {
		q.Set("min_ts", fmt.Sprintf("%d", since.Unix()))
	}
	path := "/v2/portfolio/fills"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp fillsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching fills: %w", err)
	}

	fills := make([]domain.Fill, 0, len(resp.Fills))
	for _, f := range resp.Fills {
		fills = append(fills, domain.Fill{
			ExternalOrderID: f.OrderID,
			TradeID:         f.TradeID,
			Ticker:          f.Ticker,
			Side:            domain.Side(f.Side),
			Quantity:        f.Count,
			Price:           f.Price,
			CreatedAt:       f.CreatedAt,
		})
	}
	return fills, nil
}

// doJSON performs one rate-limited, retried HTTP exchange with JSON bodies.
func (c *RESTClient) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return err
		}
	}

	return util.Retry(ctx, c.maxRetries, 500*time.Millisecond, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("X-Api-Secret", c.apiSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(body))
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
