package venue

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

// PriceFeed returns the unit price of tokenIn expressed in tokenOut
type PriceFeed interface {
	UnitPrice(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error)
}

// FeeFeed returns the percentage fee a venue charges on top of its quoted price
type FeeFeed interface {
	FeePercent(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error)
}

// AmountQuoter quotes the total output for a concrete input amount
type AmountQuoter interface {
	QuoteAmountOut(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (decimal.Decimal, error)
}

// TransactionBuilder encodes a swap call for a venue's contract
type TransactionBuilder interface {
	BuildSwap(ctx context.Context, req tx.SwapRequest) (*tx.Transaction, error)
}

// Venue bundles the capabilities of a single venue. Only Price is mandatory.
type Venue struct {
	ID      types.VenueID
	Price   PriceFeed
	Fee     FeeFeed
	Quoter  AmountQuoter
	Builder TransactionBuilder
}

// Capabilities lists what a venue supports, for display
func (v *Venue) Capabilities() []string {
	caps := []string{"price"}
	if v.Fee != nil {
		caps = append(caps, "fee")
	}
	if v.Quoter != nil {
		caps = append(caps, "amount-quote")
	}
	if v.Builder != nil {
		caps = append(caps, "swap")
	}
	return caps
}

// Registry maps venue IDs to their capabilities, preserving registration order
type Registry struct {
	mu     sync.RWMutex
	order  []types.VenueID
	venues map[types.VenueID]*Venue
}

// NewRegistry creates a registry holding the given venues
func NewRegistry(venues ...*Venue) (*Registry, error) {
	r := &Registry{venues: make(map[types.VenueID]*Venue)}
	for _, v := range venues {
		if err := r.Register(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a venue. IDs must be unique.
func (r *Registry) Register(v *Venue) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("venue id is required")
	}
	if v.Price == nil {
		return fmt.Errorf("venue %s: price feed is required", v.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.venues[v.ID]; exists {
		return fmt.Errorf("venue %s already registered", v.ID)
	}
	r.venues[v.ID] = v
	r.order = append(r.order, v.ID)
	return nil
}

// Get returns a venue by ID
func (r *Registry) Get(id types.VenueID) (*Venue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.venues[id]
	return v, ok
}

// All returns the venues in registration order
func (r *Registry) All() []*Venue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Venue, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.venues[id])
	}
	return out
}

// Len returns the number of registered venues
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Builder returns the transaction builder of a venue or ErrUnsupportedVenue
func (r *Registry) Builder(id types.VenueID) (TransactionBuilder, error) {
	v, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", types.ErrUnsupportedVenue, id)
	}
	if v.Builder == nil {
		return nil, fmt.Errorf("%w: %s has no transaction builder", types.ErrUnsupportedVenue, id)
	}
	return v.Builder, nil
}
