package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"mvx-swap/pkg/metrics"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Aggregator queries every registered venue and ranks them by effective price.
// It keeps no state between calls.
type Aggregator struct {
	registry *venue.Registry
	log      *zap.Logger
}

// New creates an aggregator over the given registry
func New(registry *venue.Registry, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{registry: registry, log: log}
}

type venueResult struct {
	quote types.Quote
	err   error
}

// Aggregate ranks all venues by their fee-adjusted price for one unit of tokenIn
func (a *Aggregator) Aggregate(ctx context.Context, tokenIn, tokenOut types.TokenID) (*types.RankedResult, error) {
	return a.AggregateAt(ctx, tokenIn, tokenOut, one)
}

// AggregateAt ranks all venues for a reference amount. Venues able to quote a
// concrete amount do so when referenceAmount exceeds one unit; the result is
// normalized back to a unit price.
//
// Venues whose lookups fail are left out of the ranking. The call fails with
// ErrAggregationFailed only when no venue succeeds.
func (a *Aggregator) AggregateAt(ctx context.Context, tokenIn, tokenOut types.TokenID, referenceAmount decimal.Decimal) (*types.RankedResult, error) {
	if tokenIn == "" || tokenOut == "" {
		return nil, fmt.Errorf("%w: token pair is incomplete", types.ErrAggregationFailed)
	}
	if !referenceAmount.IsPositive() {
		referenceAmount = one
	}

	venues := a.registry.All()
	if len(venues) == 0 {
		return nil, fmt.Errorf("%w: no venues registered", types.ErrAggregationFailed)
	}

	results := iter.Map(venues, func(v **venue.Venue) venueResult {
		q, err := a.fetch(ctx, *v, tokenIn, tokenOut, referenceAmount)
		return venueResult{quote: q, err: err}
	})

	quotes := make([]types.Quote, 0, len(results))
	var errs []error
	for i, res := range results {
		if res.err != nil {
			a.log.Warn("venue excluded from ranking",
				zap.String("venue", string(venues[i].ID)),
				zap.String("pair", pairLabel(tokenIn, tokenOut)),
				zap.Error(res.err))
			errs = append(errs, res.err)
			continue
		}
		quotes = append(quotes, res.quote)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrAggregationFailed, errors.Join(errs...))
	}

	ranked := Rank(quotes)
	a.log.Debug("venues ranked",
		zap.String("pair", pairLabel(tokenIn, tokenOut)),
		zap.String("best", string(ranked.BestVenue())),
		zap.Int("venues", len(ranked.Quotes)),
		zap.Int("excluded", len(errs)))

	return ranked, nil
}

// fetch gathers the price and, when the venue quotes fee-exclusive prices, the fee.
// A failed fee lookup excludes the venue: an unknown fee could overstate its price.
func (a *Aggregator) fetch(ctx context.Context, v *venue.Venue, tokenIn, tokenOut types.TokenID, ref decimal.Decimal) (types.Quote, error) {
	var (
		price, fee       decimal.Decimal
		priceErr, feeErr error
		wg               conc.WaitGroup
	)

	wg.Go(func() {
		price, priceErr = a.unitPrice(ctx, v, tokenIn, tokenOut, ref)
	})
	if v.Fee != nil {
		wg.Go(func() {
			fee, feeErr = a.feePercent(ctx, v, tokenIn, tokenOut)
		})
	}
	wg.Wait()

	if priceErr != nil {
		return types.Quote{}, &types.VenueError{Venue: v.ID, Err: priceErr}
	}
	if feeErr != nil {
		return types.Quote{}, &types.VenueError{Venue: v.ID, Err: feeErr}
	}

	return types.Quote{Venue: v.ID, UnitPrice: price, FeePercent: fee}, nil
}

func (a *Aggregator) unitPrice(ctx context.Context, v *venue.Venue, tokenIn, tokenOut types.TokenID, ref decimal.Decimal) (decimal.Decimal, error) {
	if v.Quoter != nil && ref.GreaterThan(one) {
		start := time.Now()
		total, err := v.Quoter.QuoteAmountOut(ctx, tokenIn, tokenOut, ref)
		observe(v.ID, "amount", start, err)
		if err == nil {
			if err = ValidatePrice(total); err == nil {
				return total.Div(ref), nil
			}
		}
		a.log.Debug("amount quote unavailable, using unit price",
			zap.String("venue", string(v.ID)), zap.Error(err))
	}

	start := time.Now()
	price, err := v.Price.UnitPrice(ctx, tokenIn, tokenOut)
	observe(v.ID, "price", start, err)
	if err != nil {
		return decimal.Zero, ensureKind(err, types.ErrPriceFetch)
	}
	if err := ValidatePrice(price); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrPriceFetch, err)
	}
	return price, nil
}

func (a *Aggregator) feePercent(ctx context.Context, v *venue.Venue, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error) {
	start := time.Now()
	fee, err := v.Fee.FeePercent(ctx, tokenIn, tokenOut)
	observe(v.ID, "fee", start, err)
	if err != nil {
		return decimal.Zero, ensureKind(err, types.ErrFeeFetch)
	}
	if err := ValidateFee(fee); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrFeeFetch, err)
	}
	return fee, nil
}

// Rank sorts quotes by effective price, best first. Equal prices keep their
// input order.
func Rank(quotes []types.Quote) *types.RankedResult {
	effective := make([]types.EffectiveQuote, len(quotes))
	for i, q := range quotes {
		effective[i] = q.Effective()
	}

	sort.SliceStable(effective, func(i, j int) bool {
		return effective[i].EffectivePrice.GreaterThan(effective[j].EffectivePrice)
	})

	ranked := &types.RankedResult{
		Quotes:              effective,
		SavingsVsSecondBest: decimal.Zero,
		SavingsVsWorst:      decimal.Zero,
	}
	if len(effective) >= 2 {
		best := effective[0].EffectivePrice
		ranked.SavingsVsSecondBest = savings(best, effective[1].EffectivePrice)
		ranked.SavingsVsWorst = savings(best, effective[len(effective)-1].EffectivePrice)
	}
	return ranked
}

func savings(best, other decimal.Decimal) decimal.Decimal {
	if !other.IsPositive() {
		return decimal.Zero
	}
	return best.Sub(other).Div(other).Mul(hundred)
}

// ValidatePrice rejects zero or negative prices
func ValidatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", p)
	}
	return nil
}

// ValidateFee requires a percentage in [0, 100)
func ValidateFee(f decimal.Decimal) error {
	if f.IsNegative() || f.GreaterThanOrEqual(hundred) {
		return fmt.Errorf("fee must be in [0, 100), got %s", f)
	}
	return nil
}

func ensureKind(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func observe(id types.VenueID, kind string, start time.Time, err error) {
	metrics.FeedLatency.WithLabelValues(string(id), kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FeedErrors.WithLabelValues(string(id), kind).Inc()
	}
}

func pairLabel(tokenIn, tokenOut types.TokenID) string {
	return string(tokenIn) + "-" + string(tokenOut)
}
