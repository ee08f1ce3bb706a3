package in_memory

import (
	"context"
	"sync"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/port"
)

var _ port.TradeStore = (*TradeStore)(nil)

// TradeStore keeps trades in memory. Used when no database is configured
// and as the store in tests.
type TradeStore struct {
	mu     sync.Mutex
	trades []*domain.Trade
}

func NewTradeStore() *TradeStore {
	return &TradeStore{}
}

func (s *TradeStore) SaveTrade(ctx context.Context, t *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, t)
	return nil
}

func (s *TradeStore) RecentTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*domain.Trade
	for i := len(s.trades) - 1; i >= 0 && len(res) < limit; i-- {
		if s.trades[i].Symbol == symbol {
			res = append(res, s.trades[i])
		}
	}
	return res, nil
}

func (s *TradeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}
