package core

import (
	"sync"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// fill is one quantity application against a resting order.
type fill struct {
	maker *domain.Order
	qty   decimal.Decimal
}

// PriceLevel holds every resting order at one exact price, in arrival order.
// The level mutex is the unit of mutual exclusion for matching: aggregating
// the level's quantity and applying fills happen as one step under it, while
// other levels stay fully concurrent.
type PriceLevel struct {
	price decimal.Decimal

	mu     sync.Mutex
	orders []*domain.Order
	closed bool
}

func newPriceLevel(price decimal.Decimal, first *domain.Order) *PriceLevel {
	return &PriceLevel{price: price, orders: []*domain.Order{first}}
}

func (l *PriceLevel) Price() decimal.Decimal { return l.price }

// enqueue appends at the tail, preserving time priority. It refuses orders
// once the level has been drained and closed; the caller must retry against
// a fresh level after the closed one is unlinked from the book.
func (l *PriceLevel) enqueue(o *domain.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.orders = append(l.orders, o)
	return true
}

// available sums the unfilled quantity across the level.
func (l *PriceLevel) available() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, o := range l.orders {
		total = total.Add(o.AvailableQuantity())
	}
	return total
}

func (l *PriceLevel) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}

// fillAgainst applies the taker's remaining quantity to this level inside the
// level's critical section.
//
// When the taker can absorb the whole level, the taker is charged with the
// level's aggregate in a single compare-and-swap; losing that swap abandons
// the attempt with no side effects (abandoned=true), matching the documented
// race policy. Otherwise resting orders are filled one by one in time order,
// exhausted ones are unlinked without disturbing the rest, and the taker is
// charged with the aggregate actually applied.
//
// drained=true means the level holds no more liquidity and the caller should
// compare-and-remove it from the book.
func (l *PriceLevel) fillAgainst(taker *domain.Order) (fills []fill, drained, abandoned bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, true, false
	}
	if len(l.orders) == 0 {
		l.closed = true
		return nil, true, false
	}

	levelAvail := decimal.Zero
	for _, o := range l.orders {
		levelAvail = levelAvail.Add(o.AvailableQuantity())
	}

	takerDeal := taker.DealQuantity()
	takerAvail := taker.SubmitQuantity().Sub(takerDeal)

	if takerAvail.GreaterThanOrEqual(levelAvail) {
		if !taker.TryFill(takerDeal, levelAvail) {
			// Lost the swap to a concurrent fill of the taker; leave the
			// level untouched. Not retried, per the matching contract.
			return nil, false, true
		}
		fills = make([]fill, 0, len(l.orders))
		for _, maker := range l.orders {
			qty := maker.AvailableQuantity()
			if qty.Sign() <= 0 {
				continue
			}
			maker.TryFill(maker.DealQuantity(), qty)
			fills = append(fills, fill{maker: maker, qty: qty})
		}
		l.orders = nil
		l.closed = true
		return fills, true, false
	}

	remaining := takerAvail
	applied := decimal.Zero
	keep := l.orders[:0]
	for _, maker := range l.orders {
		if remaining.Sign() == 0 {
			keep = append(keep, maker)
			continue
		}
		makerAvail := maker.AvailableQuantity()
		if makerAvail.Sign() <= 0 {
			continue
		}
		qty := decimal.Min(makerAvail, remaining)
		maker.TryFill(maker.DealQuantity(), qty)
		remaining = remaining.Sub(qty)
		applied = applied.Add(qty)
		fills = append(fills, fill{maker: maker, qty: qty})
		if maker.AvailableQuantity().Sign() > 0 {
			keep = append(keep, maker)
		}
	}
	l.orders = keep

	// Only this submission fills the taker, so the swap can only fail against
	// a stale read; re-reading keeps the fills applied above conserved.
	for !taker.TryFill(taker.DealQuantity(), applied) {
	}
	return fills, false, false
}
