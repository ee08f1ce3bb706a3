package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine matches incoming orders against a two-sided resting book with
// price-time priority. Submit is safe for arbitrary concurrent callers; all
// synchronization is short-lived in-memory locking and compare-and-swap, and
// the engine never blocks on I/O.
type Engine struct {
	symbol     string
	priceScale int32
	qtyScale   int32
	book       *Book
	log        *zap.Logger
}

// NewEngine creates an engine for one instrument. The price and quantity
// scales are fixed for the engine's lifetime and applied to every submission,
// so equal prices always land in the same level.
func NewEngine(symbol string, priceScale, qtyScale int32, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		symbol:     symbol,
		priceScale: priceScale,
		qtyScale:   qtyScale,
		book:       NewBook(),
		log:        log,
	}
}

func (e *Engine) Symbol() string { return e.symbol }

// Submit matches the order against the opposite side and rests any remainder
// on its own side. It returns the accepted order and the fills produced by
// this call. Orders with non-positive quantity or negative price are rejected
// with domain.ErrInvalidOrder before anything is mutated.
func (e *Engine) Submit(price, quantity decimal.Decimal, side domain.Side) (*domain.Order, []*domain.Trade, error) {
	start := time.Now()
	if side != domain.Buy && side != domain.Sell {
		metrics.OrdersRejected.Inc()
		return nil, nil, fmt.Errorf("%w: unknown side %q", domain.ErrInvalidOrder, side)
	}
	if price.Sign() < 0 {
		metrics.OrdersRejected.Inc()
		return nil, nil, fmt.Errorf("%w: negative price %s", domain.ErrInvalidOrder, price)
	}
	price = price.Round(e.priceScale)
	quantity = quantity.Round(e.qtyScale)
	if quantity.Sign() <= 0 {
		metrics.OrdersRejected.Inc()
		return nil, nil, fmt.Errorf("%w: non-positive quantity %s", domain.ErrInvalidOrder, quantity)
	}

	order := domain.NewOrder(price, quantity, side)
	metrics.OrdersSubmitted.Inc()

	trades := e.match(order)

	if order.AvailableQuantity().Sign() > 0 {
		e.book.side(side).postOrGrow(order)
		metrics.OrdersRested.Inc()
	}

	metrics.TradesExecuted.Add(float64(len(trades)))
	metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	e.log.Debug("order submitted",
		zap.String("order_id", order.ID()),
		zap.String("side", string(side)),
		zap.String("price", price.String()),
		zap.String("quantity", quantity.String()),
		zap.Int("fills", len(trades)),
		zap.String("remaining", order.AvailableQuantity().String()),
	)
	return order, trades, nil
}

// match walks the opposite side's levels in priority order, applying the
// taker's quantity to every crossing level. Iteration stops early only when
// the taker is exhausted; ineligible levels are skipped, not terminal,
// because the crossing test is direction-asymmetric.
func (e *Engine) match(taker *domain.Order) []*domain.Trade {
	opposite := e.book.side(taker.Side().Opposite())
	if opposite.len() == 0 {
		return nil
	}

	var trades []*domain.Trade
	for _, lvl := range opposite.snapshot() {
		if taker.AvailableQuantity().Sign() <= 0 {
			break
		}
		if !crosses(taker.Side(), taker.Price(), lvl.Price()) {
			continue
		}
		fills, drained, abandoned := lvl.fillAgainst(taker)
		if abandoned {
			metrics.LevelMatchesAbandoned.Inc()
			continue
		}
		if drained {
			opposite.removeLevel(lvl.Price(), lvl)
		}
		for _, f := range fills {
			trades = append(trades, e.tradeFor(taker, f, lvl.Price()))
		}
	}
	return trades
}

// crosses is the direction-specific price eligibility test. A buy takes an
// ask only strictly below its own price; a sell takes any bid at or above
// its own price. The asymmetry is deliberate and must not be evened out.
func crosses(side domain.Side, orderPrice, levelPrice decimal.Decimal) bool {
	if side == domain.Buy {
		return orderPrice.GreaterThan(levelPrice)
	}
	return orderPrice.LessThanOrEqual(levelPrice)
}

func (e *Engine) tradeFor(taker *domain.Order, f fill, price decimal.Decimal) *domain.Trade {
	t := &domain.Trade{
		ID:        uuid.NewString(),
		Symbol:    e.symbol,
		Price:     price,
		Quantity:  f.qty,
		Timestamp: time.Now(),
	}
	if taker.Side() == domain.Buy {
		t.BuyOrder, t.SellOrder = taker.ID(), f.maker.ID()
	} else {
		t.BuyOrder, t.SellOrder = f.maker.ID(), taker.ID()
	}
	return t
}

// BestLevels returns up to n+1 leading levels of a side with their aggregate
// available quantity, best price first. Levels without liquidity are skipped.
// Reads are eventually consistent under concurrent submissions.
func (e *Engine) BestLevels(n int, side domain.Side) []domain.Level {
	out := make([]domain.Level, 0, n+1)
	for _, lvl := range e.book.side(side).snapshot() {
		if len(out) > n {
			break
		}
		qty := lvl.available()
		if qty.Sign() <= 0 {
			continue
		}
		out = append(out, domain.Level{Price: lvl.Price(), Quantity: qty})
	}
	return out
}

// Depth is the two-sided best-n snapshot.
func (e *Engine) Depth(n int) *domain.DepthSnapshot {
	return &domain.DepthSnapshot{
		Symbol:    e.symbol,
		Bids:      e.BestLevels(n, domain.Buy),
		Asks:      e.BestLevels(n, domain.Sell),
		Timestamp: time.Now(),
	}
}

// QuantityBetter aggregates the available quantity resting strictly better
// than price on a side: above it for bids, below it for asks.
func (e *Engine) QuantityBetter(side domain.Side, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, lvl := range e.book.side(side).snapshot() {
		if side == domain.Buy && !lvl.Price().GreaterThan(price) {
			continue
		}
		if side == domain.Sell && !lvl.Price().LessThan(price) {
			continue
		}
		total = total.Add(lvl.available())
	}
	return total
}

// LevelCounts reports how many price levels rest on each side.
func (e *Engine) LevelCounts() (bids, asks int) {
	return e.book.bids.len(), e.book.asks.len()
}

// Reset discards both sides of the book. It must not run concurrently with
// Submit; callers are responsible for quiescing submissions first.
func (e *Engine) Reset() {
	bids := e.book.bids.clear()
	asks := e.book.asks.clear()
	e.log.Info("order book reset",
		zap.String("symbol", e.symbol),
		zap.Int("bid_levels", bids),
		zap.Int("ask_levels", asks),
	)
}
