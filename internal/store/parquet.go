package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"tempest/internal/domain"
)

// RunArchive writes run history and reconciled fills as Parquet files for
// offline analytics. One file per run keeps writes append-free.
type RunArchive struct {
	DataDir string
}

// NewRunArchive creates a RunArchive rooted at the given data directory.
func NewRunArchive(dataDir string) *RunArchive {
	return &RunArchive{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// CycleRecord is the Parquet schema for one entity's cycle within a run.
type CycleRecord struct {
	RunStarted       int64  `parquet:"run_started,timestamp(millisecond)"` // Unix ms
	Entity           string `parquet:"entity"`
	Success          bool   `parquet:"success"`
	WeatherFetched   bool   `parquet:"weather_fetched"`
	MarketsFetched   int    `parquet:"markets_fetched"`
	SignalsGenerated int    `parquet:"signals_generated"`
	GatesPassed      int    `parquet:"gates_passed"`
	OrdersSubmitted  int    `parquet:"orders_submitted"`
	ErrorCount       int    `parquet:"error_count"`
}

// FillRecord is the Parquet schema for reconciled fills.
type FillRecord struct {
	IntentKey       string `parquet:"intent_key"`
	ExternalOrderID string `parquet:"external_order_id"`
	TradeID         string `parquet:"trade_id"`
	Ticker          string `parquet:"ticker"`
	Side            string `parquet:"side"`
	Quantity        int    `parquet:"quantity"`
	Price           int    `parquet:"price"`
	CreatedAt       string `parquet:"created_at"`
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// RecordRun writes the cycle records for one run to
// <DataDir>/runs/<timestamp>.parquet.
func (a *RunArchive) RecordRun(startedAt time.Time, cycles []CycleRecord) error {
	if len(cycles) == 0 {
		return nil
	}
	for i := range cycles {
		cycles[i].RunStarted = startedAt.UnixMilli()
	}
	path := filepath.Join(a.DataDir, "runs",
		fmt.Sprintf("%s.parquet", startedAt.UTC().Format("20060102T150405")))
	return writeParquet(path, cycles)
}

// ArchiveFills writes reconciled fills for one intent key to
// <DataDir>/fills/<timestamp>.parquet.
func (a *RunArchive) ArchiveFills(intentKey string, fills []domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}
	records := make([]FillRecord, 0, len(fills))
	for _, f := range fills {
		records = append(records, FillRecord{
			IntentKey:       intentKey,
			ExternalOrderID: f.ExternalOrderID,
			TradeID:         f.TradeID,
			Ticker:          f.Ticker,
			Side:            string(f.Side),
			Quantity:        f.Quantity,
			Price:           f.Price,
			CreatedAt:       f.CreatedAt,
		})
	}
	path := filepath.Join(a.DataDir, "fills",
		fmt.Sprintf("%s.parquet", time.Now().UTC().Format("20060102T150405.000")))
	return writeParquet(path, records)
}

func writeParquet[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("writing archive %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadCycleRecords loads one run file back. Used by analytics tooling and
// tests.
func ReadCycleRecords(path string) ([]CycleRecord, error) {
	return parquet.ReadFile[CycleRecord](path)
}
