package main

import (
	"context"
	"log"

	"github.com/quantex/matching-engine/internal/adapter/cache"
	"github.com/quantex/matching-engine/internal/adapter/in_memory"
	"github.com/quantex/matching-engine/internal/adapter/pg"
	"github.com/quantex/matching-engine/internal/api/http"
	"github.com/quantex/matching-engine/internal/config"
	"github.com/quantex/matching-engine/internal/core"
	"github.com/quantex/matching-engine/internal/port"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store port.TradeStore
	if cfg.PostgresDSN != "" {
		pgStore, err := pg.NewTradeStore(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("connect to Postgres", zap.Error(err))
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		logger.Info("no Postgres DSN configured, keeping trades in memory")
		store = in_memory.NewTradeStore()
	}

	var depthCache port.DepthCache
	if cfg.RedisAddr != "" {
		depthCache = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	}

	eng := core.NewEngine(cfg.Symbol, cfg.PriceScale, cfg.QuantityScale, logger)

	journal := core.NewTradeJournal(store, logger, cfg.JournalBuffer)
	go journal.Run(ctx)

	server := http.NewHTTPServer(eng, journal, store, depthCache, cfg, logger)
	logger.Info("starting HTTP server",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("symbol", cfg.Symbol),
	)
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
