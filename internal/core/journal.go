package core

import (
	"context"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/metrics"
	"github.com/quantex/matching-engine/internal/port"
	"go.uber.org/zap"
)

// TradeJournal persists executed trades off the matching hot path. Record
// never blocks; trades are handed to a buffered channel consumed by Run, and
// dropped with a counter when the buffer is full.
type TradeJournal struct {
	store port.TradeStore
	log   *zap.Logger
	ch    chan *domain.Trade
}

func NewTradeJournal(store port.TradeStore, log *zap.Logger, buffer int) *TradeJournal {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 1024
	}
	return &TradeJournal{
		store: store,
		log:   log,
		ch:    make(chan *domain.Trade, buffer),
	}
}

// Record enqueues trades for persistence without blocking the caller.
func (j *TradeJournal) Record(trades []*domain.Trade) {
	for _, t := range trades {
		select {
		case j.ch <- t:
		default:
			metrics.TradesDropped.Inc()
			j.log.Warn("trade journal buffer full, dropping trade", zap.String("trade_id", t.ID))
		}
	}
}

// Run consumes the buffer until ctx is cancelled, draining what is left.
func (j *TradeJournal) Run(ctx context.Context) {
	for {
		select {
		case t := <-j.ch:
			j.save(ctx, t)
		case <-ctx.Done():
			for {
				select {
				case t := <-j.ch:
					j.save(context.Background(), t)
				default:
					return
				}
			}
		}
	}
}

func (j *TradeJournal) save(ctx context.Context, t *domain.Trade) {
	if err := j.store.SaveTrade(ctx, t); err != nil {
		j.log.Error("save trade", zap.String("trade_id", t.ID), zap.Error(err))
	}
}
