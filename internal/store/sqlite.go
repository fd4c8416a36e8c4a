package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tempest/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ OrderStore = (*SQLiteStore)(nil)

// SQLiteStore implements OrderStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	intent_key         TEXT PRIMARY KEY,
	external_order_id  TEXT,
	ticker             TEXT NOT NULL,
	entity_code        TEXT NOT NULL,
	market_id          TEXT NOT NULL,
	event_date         TEXT NOT NULL,
	side               TEXT NOT NULL,
	action             TEXT NOT NULL,
	quantity           INTEGER NOT NULL,
	limit_price        INTEGER NOT NULL,
	status             TEXT NOT NULL,
	filled_quantity    INTEGER NOT NULL DEFAULT 0,
	remaining_quantity INTEGER NOT NULL,
	avg_fill_price     REAL NOT NULL DEFAULT 0,
	status_message     TEXT,
	created_at         TEXT NOT NULL,
	submitted_at       TEXT,
	filled_at          TEXT,
	cancelled_at       TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_external ON orders(external_order_id);

CREATE TABLE IF NOT EXISTS fills (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	intent_key  TEXT NOT NULL,
	trade_id    TEXT,
	quantity    INTEGER NOT NULL,
	price       INTEGER NOT NULL,
	created_at  TEXT,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fills_intent ON fills(intent_key);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema if needed, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateOrderIdempotent inserts the order unless its intent key exists.
func (s *SQLiteStore) CreateOrderIdempotent(ctx context.Context, o *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (
			intent_key, external_order_id, ticker, entity_code, market_id,
			event_date, side, action, quantity, limit_price, status,
			filled_quantity, remaining_quantity, avg_fill_price,
			status_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(intent_key) DO NOTHING`,
		o.IntentKey, o.ExternalOrderID, o.Ticker, o.EntityCode, o.MarketID,
		o.EventDate, string(o.Side), string(o.Action), o.Quantity, o.LimitPrice,
		string(o.Status), o.FilledQuantity, o.RemainingQuantity, o.AvgFillPrice,
		o.StatusMessage, o.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// UpdateStatus persists the order's current status and fill state.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, o *domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			external_order_id = ?,
			status = ?,
			filled_quantity = ?,
			remaining_quantity = ?,
			avg_fill_price = ?,
			status_message = ?,
			submitted_at = ?,
			filled_at = ?,
			cancelled_at = ?
		WHERE intent_key = ?`,
		o.ExternalOrderID, string(o.Status), o.FilledQuantity,
		o.RemainingQuantity, o.AvgFillPrice, o.StatusMessage,
		formatNullableTime(o.SubmittedAt), formatNullableTime(o.FilledAt),
		formatNullableTime(o.CancelledAt), o.IntentKey,
	)
	return err
}

// RecordFill appends a reconciled fill for audit.
func (s *SQLiteStore) RecordFill(ctx context.Context, intentKey string, fill domain.Fill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fills (intent_key, trade_id, quantity, price, created_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		intentKey, fill.TradeID, fill.Quantity, fill.Price, fill.CreatedAt,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetOpenOrders returns every order not in a terminal state.
func (s *SQLiteStore) GetOpenOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent_key, external_order_id, ticker, entity_code, market_id,
			event_date, side, action, quantity, limit_price, status,
			filled_quantity, remaining_quantity, avg_fill_price,
			status_message, created_at, submitted_at, filled_at, cancelled_at
		FROM orders
		WHERE status NOT IN ('CANCELLED', 'REJECTED', 'CLOSED')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var side, action, status string
		var externalID, message sql.NullString
		var createdAt string
		var submittedAt, filledAt, cancelledAt sql.NullString

		if err := rows.Scan(
			&o.IntentKey, &externalID, &o.Ticker, &o.EntityCode, &o.MarketID,
			&o.EventDate, &side, &action, &o.Quantity, &o.LimitPrice, &status,
			&o.FilledQuantity, &o.RemainingQuantity, &o.AvgFillPrice,
			&message, &createdAt, &submittedAt, &filledAt, &cancelledAt,
		); err != nil {
			return nil, err
		}

		o.ExternalOrderID = externalID.String
		o.Side = domain.Side(side)
		o.Action = domain.Action(action)
		o.Status = domain.OrderStatus(status)
		o.StatusMessage = message.String
		o.CreatedAt = parseStoredTime(createdAt)
		o.SubmittedAt = parseNullableTime(submittedAt)
		o.FilledAt = parseNullableTime(filledAt)
		o.CancelledAt = parseNullableTime(cancelledAt)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseStoredTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return nil
	}
	return &t
}
