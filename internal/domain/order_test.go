package domain

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewOrder(t *testing.T) {
	o := NewOrder(d("10.50"), d("5"), Buy)

	assert.NotEmpty(t, o.ID())
	assert.True(t, o.Price().Equal(d("10.50")))
	assert.True(t, o.SubmitQuantity().Equal(d("5")))
	assert.True(t, o.DealQuantity().IsZero())
	assert.True(t, o.AvailableQuantity().Equal(d("5")))
	assert.Equal(t, Buy, o.Side())
	assert.False(t, o.Filled())
}

func TestTryFill(t *testing.T) {
	o := NewOrder(d("10"), d("5"), Sell)

	require.True(t, o.TryFill(decimal.Zero, d("3")))
	assert.True(t, o.DealQuantity().Equal(d("3")))
	assert.True(t, o.AvailableQuantity().Equal(d("2")))

	// stale expected value must fail without side effects
	require.False(t, o.TryFill(decimal.Zero, d("2")))
	assert.True(t, o.DealQuantity().Equal(d("3")))

	require.True(t, o.TryFill(d("3"), d("2")))
	assert.True(t, o.AvailableQuantity().IsZero())
	assert.True(t, o.Filled())
}

func TestFillAccountingInvariant(t *testing.T) {
	o := NewOrder(d("1"), d("10"), Buy)
	for i := 0; i < 10; i++ {
		require.True(t, o.TryFill(o.DealQuantity(), d("1")))
		sum := o.AvailableQuantity().Add(o.DealQuantity())
		assert.True(t, sum.Equal(o.SubmitQuantity()))
		assert.True(t, o.AvailableQuantity().Sign() >= 0)
	}
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

// Many goroutines race to deduct from one order; the compare-and-swap must
// never let the total deducted exceed the submitted quantity.
func TestConcurrentTryFillNoDoubleFill(t *testing.T) {
	o := NewOrder(d("10"), d("10"), Sell)

	var mu sync.Mutex
	taken := decimal.Zero

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				cur := o.DealQuantity()
				avail := o.SubmitQuantity().Sub(cur)
				if avail.Sign() <= 0 {
					return
				}
				qty := decimal.Min(d("1"), avail)
				if o.TryFill(cur, qty) {
					mu.Lock()
					taken = taken.Add(qty)
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.True(t, taken.LessThanOrEqual(d("10")), "took %s", taken)
	assert.True(t, o.DealQuantity().Equal(taken))
	assert.True(t, o.AvailableQuantity().Sign() >= 0)
}
