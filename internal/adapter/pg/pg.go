package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/port"
)

var _ port.TradeStore = (*TradeStore)(nil)

type TradeStore struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewTradeStore(ctx context.Context, dsn string) (*TradeStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &TradeStore{pool: pool}, nil
}

func (s *TradeStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *TradeStore) SaveTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return errors.New("nil trade")
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO trades(id, symbol, buy_order, sell_order, price, quantity, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Symbol, t.BuyOrder, t.SellOrder, t.Price, t.Quantity, t.Timestamp)
	if err != nil {
		return fmt.Errorf("pg: save trade: %w", err)
	}
	return nil
}

// RecentTrades returns the latest trades for a symbol, newest first.
func (s *TradeStore) RecentTrades(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, symbol, buy_order, sell_order, price, quantity, executed_at
FROM trades
WHERE symbol = $1
ORDER BY executed_at DESC
LIMIT $2
`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("pg: recent trades: %w", err)
	}
	defer rows.Close()

	var res []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.BuyOrder, &t.SellOrder, &t.Price, &t.Quantity, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("pg: scan trade: %w", err)
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}
