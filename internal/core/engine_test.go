package core

import (
	"sync"
	"testing"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine("TEST", 2, 8, nil)
}

func TestSubmitRejectsInvalidOrders(t *testing.T) {
	eng := newTestEngine(t)

	_, _, err := eng.Submit(d("10"), d("0"), domain.Buy)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, _, err = eng.Submit(d("10"), d("-1"), domain.Buy)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, _, err = eng.Submit(d("-10"), d("1"), domain.Sell)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, _, err = eng.Submit(d("10"), d("1"), domain.Side("HOLD"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	bids, asks := eng.LevelCounts()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
}

func TestSubmitRestsOnEmptyBook(t *testing.T) {
	eng := newTestEngine(t)

	order, trades, err := eng.Submit(d("10"), d("5"), domain.Buy)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.True(t, order.AvailableQuantity().Equal(d("5")))

	levels := eng.BestLevels(1, domain.Buy)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Price.Equal(d("10")))
	assert.True(t, levels[0].Quantity.Equal(d("5")))
	assert.Empty(t, eng.BestLevels(1, domain.Sell))
}

func TestSellCrossesRestingBidAtOrAboveItsPrice(t *testing.T) {
	eng := newTestEngine(t)

	bid, _, err := eng.Submit(d("10"), d("5"), domain.Buy)
	require.NoError(t, err)

	sell, trades, err := eng.Submit(d("9"), d("3"), domain.Sell)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	assert.True(t, trades[0].Quantity.Equal(d("3")))
	assert.True(t, trades[0].Price.Equal(d("10")))
	assert.Equal(t, bid.ID(), trades[0].BuyOrder)
	assert.Equal(t, sell.ID(), trades[0].SellOrder)

	assert.True(t, bid.AvailableQuantity().Equal(d("2")))
	assert.True(t, sell.Filled())
	assert.Empty(t, eng.BestLevels(1, domain.Sell), "nothing rests on the ask side")
}

// A buy crosses only strictly above the ask price; at an equal price it must
// rest, leaving both sides at the same price. This asymmetry is part of the
// engine's contract.
func TestBuyDoesNotCrossAtEqualPrice(t *testing.T) {
	eng := newTestEngine(t)

	_, _, err := eng.Submit(d("10"), d("4"), domain.Sell)
	require.NoError(t, err)

	buy, trades, err := eng.Submit(d("10"), d("10"), domain.Buy)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.True(t, buy.AvailableQuantity().Equal(d("10")))

	bids := eng.BestLevels(0, domain.Buy)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(d("10")))
	assert.True(t, bids[0].Quantity.Equal(d("10")))

	asks := eng.BestLevels(0, domain.Sell)
	require.Len(t, asks, 1)
	assert.True(t, asks[0].Quantity.Equal(d("4")))
}

func TestPricePriorityAcrossLevels(t *testing.T) {
	eng := newTestEngine(t)

	_, _, err := eng.Submit(d("10.00"), d("4"), domain.Sell)
	require.NoError(t, err)
	_, _, err = eng.Submit(d("10.50"), d("4"), domain.Sell)
	require.NoError(t, err)

	buy, trades, err := eng.Submit(d("11"), d("8"), domain.Buy)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// best-priced level consumed first, completely
	assert.True(t, trades[0].Price.Equal(d("10.00")))
	assert.True(t, trades[0].Quantity.Equal(d("4")))
	assert.True(t, trades[1].Price.Equal(d("10.50")))
	assert.True(t, trades[1].Quantity.Equal(d("4")))
	assert.True(t, buy.Filled())

	bids, asks := eng.LevelCounts()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
}

func TestTimePriorityWithinLevel(t *testing.T) {
	eng := newTestEngine(t)

	first, _, err := eng.Submit(d("10"), d("5"), domain.Buy)
	require.NoError(t, err)
	second, _, err := eng.Submit(d("10"), d("5"), domain.Buy)
	require.NoError(t, err)

	_, trades, err := eng.Submit(d("9"), d("3"), domain.Sell)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	assert.Equal(t, first.ID(), trades[0].BuyOrder, "earliest arrival fills first")
	assert.True(t, first.AvailableQuantity().Equal(d("2")))
	assert.True(t, second.AvailableQuantity().Equal(d("5")), "later arrival untouched")
}

func TestPartialCrossRestsRemainder(t *testing.T) {
	eng := newTestEngine(t)

	_, _, err := eng.Submit(d("10"), d("3"), domain.Buy)
	require.NoError(t, err)

	sell, trades, err := eng.Submit(d("9"), d("5"), domain.Sell)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(d("3")))
	assert.True(t, sell.AvailableQuantity().Equal(d("2")))

	asks := eng.BestLevels(0, domain.Sell)
	require.Len(t, asks, 1)
	assert.True(t, asks[0].Price.Equal(d("9")))
	assert.True(t, asks[0].Quantity.Equal(d("2")))
}

func TestConservationAcrossLevels(t *testing.T) {
	eng := newTestEngine(t)

	makers := make([]*domain.Order, 0, 3)
	for _, p := range []string{"10.00", "10.10", "10.20"} {
		m, _, err := eng.Submit(d(p), d("4"), domain.Sell)
		require.NoError(t, err)
		makers = append(makers, m)
	}

	buy, trades, err := eng.Submit(d("10.15"), d("20"), domain.Buy)
	require.NoError(t, err)

	total := decimal.Zero
	for _, tr := range trades {
		total = total.Add(tr.Quantity)
	}
	assert.True(t, total.Equal(buy.DealQuantity()), "fills %s vs taker deal %s", total, buy.DealQuantity())

	makerDeal := decimal.Zero
	for _, m := range makers {
		makerDeal = makerDeal.Add(m.DealQuantity())
	}
	assert.True(t, makerDeal.Equal(total), "maker deductions must equal taker fills")

	// 10.00 and 10.10 cross (strictly below 10.15), 10.20 does not
	assert.True(t, total.Equal(d("8")))
}

func TestBestLevelsReturnsUpToNPlusOne(t *testing.T) {
	eng := newTestEngine(t)
	for _, p := range []string{"10", "11", "12", "13", "14"} {
		_, _, err := eng.Submit(d(p), d("1"), domain.Sell)
		require.NoError(t, err)
	}

	levels := eng.BestLevels(2, domain.Sell)
	require.Len(t, levels, 3)
	assert.True(t, levels[0].Price.Equal(d("10")))
	assert.True(t, levels[2].Price.Equal(d("12")))
}

func TestQuantityBetterIsStrict(t *testing.T) {
	eng := newTestEngine(t)
	for _, p := range []string{"9", "10", "11"} {
		_, _, err := eng.Submit(d(p), d("2"), domain.Buy)
		require.NoError(t, err)
	}

	assert.True(t, eng.QuantityBetter(domain.Buy, d("10")).Equal(d("2")), "only bids strictly above 10")
	assert.True(t, eng.QuantityBetter(domain.Buy, d("8")).Equal(d("6")))

	eng2 := newTestEngine(t)
	for _, p := range []string{"9", "10", "11"} {
		_, _, err := eng2.Submit(d(p), d("2"), domain.Sell)
		require.NoError(t, err)
	}
	assert.True(t, eng2.QuantityBetter(domain.Sell, d("10")).Equal(d("2")), "only asks strictly below 10")
}

func TestPriceScaleBucketsEqualPrices(t *testing.T) {
	eng := newTestEngine(t) // price scale 2
	_, _, err := eng.Submit(d("10.001"), d("1"), domain.Buy)
	require.NoError(t, err)
	_, _, err = eng.Submit(d("10.004"), d("1"), domain.Buy)
	require.NoError(t, err)

	levels := eng.BestLevels(5, domain.Buy)
	require.Len(t, levels, 1, "prices rounding to the same tick share a level")
	assert.True(t, levels[0].Price.Equal(d("10.00")))
	assert.True(t, levels[0].Quantity.Equal(d("2")))
}

func TestReset(t *testing.T) {
	eng := newTestEngine(t)
	_, _, err := eng.Submit(d("10"), d("5"), domain.Buy)
	require.NoError(t, err)
	_, _, err = eng.Submit(d("12"), d("5"), domain.Sell)
	require.NoError(t, err)

	eng.Reset()

	bids, asks := eng.LevelCounts()
	assert.Zero(t, bids)
	assert.Zero(t, asks)
	assert.Empty(t, eng.BestLevels(1, domain.Buy))
	assert.Empty(t, eng.BestLevels(1, domain.Sell))
}

// N concurrent marketable submissions against one resting order must never
// deduct more than the resting quantity in total.
func TestConcurrentSubmissionsNoDoubleFill(t *testing.T) {
	eng := newTestEngine(t)

	maker, _, err := eng.Submit(d("10"), d("100"), domain.Sell)
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		filled = decimal.Zero
		wg     sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, trades, err := eng.Submit(d("11"), d("3"), domain.Buy)
			assert.NoError(t, err)
			total := decimal.Zero
			for _, tr := range trades {
				total = total.Add(tr.Quantity)
			}
			mu.Lock()
			filled = filled.Add(total)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.True(t, maker.DealQuantity().LessThanOrEqual(d("100")))
	assert.True(t, filled.Equal(maker.DealQuantity()),
		"trades report %s, maker gave %s", filled, maker.DealQuantity())
	// demand (150) exceeds supply, so the maker must be fully consumed
	assert.True(t, maker.Filled())
	assert.Empty(t, eng.BestLevels(0, domain.Sell))
}

// Random sequential traffic: fill accounting invariants hold for every order
// ever submitted, and a strictly crossed resting book never survives a
// submit.
func TestRandomizedSubmissionsKeepInvariants(t *testing.T) {
	eng := newTestEngine(t)

	var all []*domain.Order
	prices := []string{"9.95", "9.99", "10.00", "10.01", "10.05", "10.10"}
	for i := 0; i < 500; i++ {
		side := domain.Buy
		if i%3 == 0 {
			side = domain.Sell
		}
		price := d(prices[i%len(prices)])
		qty := decimal.NewFromInt(int64(i%7 + 1))
		o, _, err := eng.Submit(price, qty, side)
		require.NoError(t, err)
		all = append(all, o)

		bids := eng.BestLevels(0, domain.Buy)
		asks := eng.BestLevels(0, domain.Sell)
		if len(bids) > 0 && len(asks) > 0 {
			assert.False(t, bids[0].Price.GreaterThan(asks[0].Price),
				"crossed book after submit: bid %s ask %s", bids[0].Price, asks[0].Price)
		}
	}

	for _, o := range all {
		avail := o.AvailableQuantity()
		assert.True(t, avail.Sign() >= 0)
		assert.True(t, avail.LessThanOrEqual(o.SubmitQuantity()))
		assert.True(t, avail.Add(o.DealQuantity()).Equal(o.SubmitQuantity()))
	}
}
