package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the book side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Fillable is the fill-accounting surface shared by the book and the engine.
// A single concrete type implements it; the interface exists so the matching
// machinery does not depend on the concrete order representation.
type Fillable interface {
	Price() decimal.Decimal
	SubmitQuantity() decimal.Decimal
	DealQuantity() decimal.Decimal
	AvailableQuantity() decimal.Decimal
	Side() Side
	TryFill(expectedDeal, additionalDeal decimal.Decimal) bool
}

// Order is a resting or incoming order. Price, submit quantity and side are
// immutable after construction; the deal quantity is mutated only through
// TryFill, a single compare-and-swap attempt.
type Order struct {
	id        string
	price     decimal.Decimal
	submitQty decimal.Decimal
	side      Side
	createdAt time.Time

	deal atomic.Pointer[decimal.Decimal]
}

var _ Fillable = (*Order)(nil)

func NewOrder(price, quantity decimal.Decimal, side Side) *Order {
	o := &Order{
		id:        uuid.NewString(),
		price:     price,
		submitQty: quantity,
		side:      side,
		createdAt: time.Now(),
	}
	zero := decimal.Zero
	o.deal.Store(&zero)
	return o
}

func (o *Order) ID() string                      { return o.id }
func (o *Order) Price() decimal.Decimal          { return o.price }
func (o *Order) SubmitQuantity() decimal.Decimal { return o.submitQty }
func (o *Order) Side() Side                      { return o.side }
func (o *Order) CreatedAt() time.Time            { return o.createdAt }

func (o *Order) DealQuantity() decimal.Decimal { return *o.deal.Load() }

// AvailableQuantity is the unfilled remainder. It is derived from the deal
// quantity on every read, so it can never disagree with a concurrent fill.
func (o *Order) AvailableQuantity() decimal.Decimal {
	return o.submitQty.Sub(*o.deal.Load())
}

// Filled reports whether the order has no available quantity left.
func (o *Order) Filled() bool { return o.AvailableQuantity().Sign() <= 0 }

// TryFill swaps the deal quantity from expectedDeal to
// expectedDeal+additionalDeal. It returns false without side effects when
// another fill got there first; the caller decides whether to re-read and
// retry or abandon the attempt.
func (o *Order) TryFill(expectedDeal, additionalDeal decimal.Decimal) bool {
	cur := o.deal.Load()
	if !cur.Equal(expectedDeal) {
		return false
	}
	next := cur.Add(additionalDeal)
	return o.deal.CompareAndSwap(cur, &next)
}

func (o *Order) String() string {
	return "order " + o.id + " " + string(o.side) + " " +
		o.AvailableQuantity().String() + "/" + o.submitQty.String() + " @ " + o.price.String()
}
