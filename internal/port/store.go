package port

import (
	"context"

	"github.com/quantex/matching-engine/internal/domain"
)

type TradeStore interface {
	SaveTrade(ctx context.Context, t *domain.Trade) error
	RecentTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error)
}
