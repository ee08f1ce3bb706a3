package port

import (
	"context"

	"github.com/quantex/matching-engine/internal/domain"
)

type DepthCache interface {
	SetDepth(ctx context.Context, symbol string, depth int, snap *domain.DepthSnapshot) error
	// GetDepth returns (nil, nil) on a cache miss.
	GetDepth(ctx context.Context, symbol string, depth int) (*domain.DepthSnapshot, error)
	// Invalidate drops every cached snapshot for the symbol, all depths.
	Invalidate(ctx context.Context, symbol string) error
}
