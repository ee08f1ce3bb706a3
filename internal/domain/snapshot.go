package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is one price level of a depth snapshot: the price and the aggregate
// available quantity resting at it.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DepthSnapshot is an eventually-consistent view of the leading levels of
// both sides, in matching-priority order.
type DepthSnapshot struct {
	Symbol    string    `json:"symbol"`
	Bids      []Level   `json:"bids"`
	Asks      []Level   `json:"asks"`
	Timestamp time.Time `json:"timestamp"`
}
