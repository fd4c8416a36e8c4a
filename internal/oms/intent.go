// Package oms owns the order lifecycle: idempotent order creation keyed by
// deterministic intent keys, status transitions along a fixed lifecycle
// graph, and reconciliation of venue fills against local orders.
package oms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"tempest/internal/domain"
)

// GenerateIntentKey derives the stable idempotency key for a trade intent.
// The key is a pure function of the trade's logical attributes: identical
// inputs always produce the identical key, so resubmitting the same intent
// can never create a duplicate order.
func GenerateIntentKey(sig domain.Signal, entityCode, marketID, eventDate string) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", entityCode, marketID, sig.Side, sig.Ticker, eventDate)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}
