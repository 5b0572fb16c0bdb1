package estimator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mvx-swap/pkg/aggregator"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RateSource ranks venues for a pair
type RateSource interface {
	Aggregate(ctx context.Context, tokenIn, tokenOut types.TokenID) (*types.RankedResult, error)
}

// Estimator turns a venue ranking into the expected output of a concrete swap
type Estimator struct {
	rates    RateSource
	registry *venue.Registry
	log      *zap.Logger
}

// New creates an estimator. The registry is used to look up amount-aware
// quoters for the selected venue.
func New(rates RateSource, registry *venue.Registry, log *zap.Logger) *Estimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Estimator{rates: rates, registry: registry, log: log}
}

// Estimate returns the expected output of swapping amountIn on the best venue.
// For amounts above one unit the best venue is asked for an amount-aware quote
// when it supports one; if that fails the unit estimate is used.
func (e *Estimator) Estimate(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (*types.SwapEstimate, error) {
	if !amountIn.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", types.ErrEstimationFailed)
	}

	ranked, err := e.rates.Aggregate(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEstimationFailed, err)
	}

	best, ok := ranked.Best()
	if !ok {
		return nil, fmt.Errorf("%w: %w: ranking is empty", types.ErrEstimationFailed, types.ErrAggregationFailed)
	}

	est := &types.SwapEstimate{
		Venue:       best.Venue,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		UnitPrice:   best.EffectivePrice,
		PriceImpact: decimal.Zero,
		AllQuotes:   ranked,
	}

	if amountIn.GreaterThan(one) {
		if refined, ok := e.refine(ctx, best, tokenIn, tokenOut, amountIn); ok {
			est.UnitPrice = refined
			est.Refined = true
			est.PriceImpact = best.EffectivePrice.Sub(refined).Div(best.EffectivePrice).Mul(hundred)
		}
	}

	est.AmountOut = amountIn.Mul(est.UnitPrice)

	e.log.Debug("swap estimated",
		zap.String("venue", string(est.Venue)),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", est.AmountOut.String()),
		zap.Bool("refined", est.Refined))

	return est, nil
}

// refine asks the selected venue for an amount-aware quote and returns the
// fee-adjusted unit price derived from it
func (e *Estimator) refine(ctx context.Context, best types.EffectiveQuote, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (decimal.Decimal, bool) {
	if e.registry == nil {
		return decimal.Zero, false
	}
	v, ok := e.registry.Get(best.Venue)
	if !ok || v.Quoter == nil {
		return decimal.Zero, false
	}

	total, err := v.Quoter.QuoteAmountOut(ctx, tokenIn, tokenOut, amountIn)
	if err == nil {
		err = aggregator.ValidatePrice(total)
	}
	if err != nil {
		e.log.Warn("amount-aware quote failed, using unit estimate",
			zap.String("venue", string(best.Venue)),
			zap.String("amount_in", amountIn.String()),
			zap.Error(err))
		return decimal.Zero, false
	}

	unit := total.Div(amountIn)
	return types.ApplyFee(unit, best.FeePercent), true
}
