package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quantex/matching-engine/internal/api/dto"
	"github.com/quantex/matching-engine/internal/config"
	"github.com/quantex/matching-engine/internal/core"
	"github.com/quantex/matching-engine/internal/domain"
	"github.com/quantex/matching-engine/internal/middleware"
	"github.com/quantex/matching-engine/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type HTTPServer struct {
	eng     *core.Engine
	journal *core.TradeJournal
	store   port.TradeStore
	cache   port.DepthCache
	cfg     *config.Config
	log     *zap.Logger
}

func NewHTTPServer(eng *core.Engine, journal *core.TradeJournal, store port.TradeStore, cache port.DepthCache, cfg *config.Config, log *zap.Logger) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPServer{eng: eng, journal: journal, store: store, cache: cache, cfg: cfg, log: log}
}

func (s *HTTPServer) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	orders := r.Group("/orders")
	if s.cfg.RateLimit > 0 {
		rl := middleware.NewClientLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
		orders.Use(rl.Middleware())
	}
	orders.POST("", s.submitOrder)

	r.GET("/orderbook", s.getDepth)
	r.GET("/orderbook/quantity", s.getQuantity)
	r.POST("/orderbook/reset", s.resetBook)
	r.GET("/trades", s.getTrades)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, trades, err := s.eng.Submit(req.Price, req.Quantity, domain.Side(req.Side))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.journal != nil {
		s.journal.Record(trades)
	}

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		OrderID:   order.ID(),
		Trades:    convertTrades(trades),
		Remaining: order.AvailableQuantity(),
	})
}

func (s *HTTPServer) getDepth(c *gin.Context) {
	depth := s.cfg.DepthLimit
	if q := c.Query("depth"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid depth"})
			return
		}
		depth = n
	}

	if s.cache != nil {
		snap, err := s.cache.GetDepth(c.Request.Context(), s.eng.Symbol(), depth)
		if err != nil {
			s.log.Warn("read depth cache", zap.Error(err))
		} else if snap != nil {
			c.JSON(http.StatusOK, convertDepth(snap))
			return
		}
	}

	snap := s.eng.Depth(depth)
	if s.cache != nil {
		if err := s.cache.SetDepth(c.Request.Context(), s.eng.Symbol(), depth, snap); err != nil {
			s.log.Warn("cache depth snapshot", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, convertDepth(snap))
}

func (s *HTTPServer) getQuantity(c *gin.Context) {
	side := domain.Side(c.Query("side"))
	if side != domain.Buy && side != domain.Sell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be BUY or SELL"})
		return
	}
	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	qty := s.eng.QuantityBetter(side, price)
	c.JSON(http.StatusOK, dto.QuantityResponse{
		Side:     dto.Side(side),
		Price:    price,
		Quantity: qty,
	})
}

// resetBook clears both sides. Callers must quiesce submissions first; the
// engine does not serialize reset against in-flight matching.
func (s *HTTPServer) resetBook(c *gin.Context) {
	s.eng.Reset()
	if s.cache != nil {
		if err := s.cache.Invalidate(c.Request.Context(), s.eng.Symbol()); err != nil {
			s.log.Warn("invalidate depth cache", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, dto.ResetResponse{Ok: true})
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	limit := 50
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	trades, err := s.store.RecentTrades(c.Request.Context(), s.eng.Symbol(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.TradesResponse{Trades: convertTrades(trades)})
}

func convertTrades(trades []*domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = convertTrade(t)
	}
	return res
}

func convertTrade(t *domain.Trade) dto.Trade {
	return dto.Trade{
		ID:        t.ID,
		BuyOrder:  t.BuyOrder,
		SellOrder: t.SellOrder,
		Price:     t.Price,
		Quantity:  t.Quantity,
		Timestamp: t.Timestamp,
	}
}

func convertDepth(snap *domain.DepthSnapshot) dto.DepthResponse {
	resp := dto.DepthResponse{
		Symbol:    snap.Symbol,
		Bids:      make([]dto.Level, len(snap.Bids)),
		Asks:      make([]dto.Level, len(snap.Asks)),
		Timestamp: snap.Timestamp,
	}
	for i, l := range snap.Bids {
		resp.Bids[i] = dto.Level{Price: l.Price, Quantity: l.Quantity}
	}
	for i, l := range snap.Asks {
		resp.Asks[i] = dto.Level{Price: l.Price, Quantity: l.Quantity}
	}
	return resp
}
