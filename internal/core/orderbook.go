package core

import (
	"sync"

	"github.com/quantex/matching-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// bookSide is one side of the book: price levels kept sorted so iteration
// order equals matching priority (bids descending, asks ascending).
//
// The side mutex guards only the shape of the tree (inserting and unlinking
// levels); it is never held across a level fill, so matching at different
// prices proceeds fully in parallel.
type bookSide struct {
	side domain.Side

	mu   sync.RWMutex
	tree *btree.BTreeG[*PriceLevel]
}

func newBookSide(side domain.Side) *bookSide {
	return &bookSide{side: side, tree: newLevelTree()}
}

func newLevelTree() *btree.BTreeG[*PriceLevel] {
	return btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.price.LessThan(b.price)
	}, btree.Options{NoLocks: true})
}

func (s *bookSide) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// snapshot returns the side's levels in matching-priority order. It is a
// point-in-time copy of the level set; levels mutated afterwards are seen
// through their own locks, so walking it stays safe under concurrent change.
func (s *bookSide) snapshot() []*PriceLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PriceLevel, 0, s.tree.Len())
	iter := func(l *PriceLevel) bool {
		out = append(out, l)
		return true
	}
	if s.side == domain.Buy {
		s.tree.Reverse(iter)
	} else {
		s.tree.Scan(iter)
	}
	return out
}

// postOrGrow rests an order on this side: append to the level at its price,
// or create a single-order level when the price is absent. Creation happens
// under the side lock, so two posts at a new price compose instead of one
// overwriting the other. A level drained by a concurrent match refuses the
// append; the loop unlinks it and retries.
func (s *bookSide) postOrGrow(o *domain.Order) {
	probe := &PriceLevel{price: o.Price()}
	for {
		s.mu.Lock()
		lvl, ok := s.tree.Get(probe)
		if !ok {
			s.tree.Set(newPriceLevel(o.Price(), o))
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		if lvl.enqueue(o) {
			return
		}
		s.removeLevel(o.Price(), lvl)
	}
}

// removeLevel unlinks the mapping at price only while it still holds the
// observed level, so a level repopulated by another goroutine survives.
func (s *bookSide) removeLevel(price decimal.Decimal, observed *PriceLevel) {
	probe := &PriceLevel{price: price}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.tree.Get(probe); ok && cur == observed {
		s.tree.Delete(probe)
	}
}

// clear drops every level and reports how many were discarded.
func (s *bookSide) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.tree.Len()
	s.tree = newLevelTree()
	return n
}

// Book is the two-sided resting book for a single instrument.
type Book struct {
	bids *bookSide
	asks *bookSide
}

func NewBook() *Book {
	return &Book{
		bids: newBookSide(domain.Buy),
		asks: newBookSide(domain.Sell),
	}
}

func (b *Book) side(s domain.Side) *bookSide {
	if s == domain.Buy {
		return b.bids
	}
	return b.asks
}
