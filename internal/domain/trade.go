package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Trade struct {
	ID        string
	Symbol    string
	BuyOrder  string
	SellOrder string
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	Timestamp time.Time
}
