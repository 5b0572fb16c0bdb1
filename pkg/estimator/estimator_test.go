package estimator

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mvx-swap/pkg/aggregator"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

type fixedPrice string

func (p fixedPrice) UnitPrice(context.Context, types.TokenID, types.TokenID) (decimal.Decimal, error) {
	return decimal.RequireFromString(string(p)), nil
}

type fixedFee string

func (f fixedFee) FeePercent(context.Context, types.TokenID, types.TokenID) (decimal.Decimal, error) {
	return decimal.RequireFromString(string(f)), nil
}

type quoter struct {
	out   string
	err   error
	calls int
}

func (q *quoter) QuoteAmountOut(context.Context, types.TokenID, types.TokenID, decimal.Decimal) (decimal.Decimal, error) {
	q.calls++
	if q.err != nil {
		return decimal.Zero, q.err
	}
	return decimal.RequireFromString(q.out), nil
}

type failingRates struct{ err error }

func (f failingRates) Aggregate(context.Context, types.TokenID, types.TokenID) (*types.RankedResult, error) {
	return nil, f.err
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T, venues ...*venue.Venue) *Estimator {
	t.Helper()
	reg, err := venue.NewRegistry(venues...)
	require.NoError(t, err)
	return New(aggregator.New(reg, zap.NewNop()), reg, zap.NewNop())
}

func TestEstimate_UnitPrice(t *testing.T) {
	est := setup(t,
		&venue.Venue{ID: "A", Price: fixedPrice("1.02")},
		&venue.Venue{ID: "C", Price: fixedPrice("1.05"), Fee: fixedFee("2")},
	)

	got, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", d("100"))
	require.NoError(t, err)

	assert.Equal(t, types.VenueID("C"), got.Venue)
	assert.True(t, d("102.9").Equal(got.AmountOut), got.AmountOut.String())
	assert.True(t, got.PriceImpact.IsZero())
	assert.False(t, got.Refined)
	assert.Len(t, got.AllQuotes.Quotes, 2)
}

func TestEstimate_SingleUnit(t *testing.T) {
	q := &quoter{out: "0.5"}
	est := setup(t, &venue.Venue{ID: "A", Price: fixedPrice("1.05"), Fee: fixedFee("2"), Quoter: q})

	got, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", d("1"))
	require.NoError(t, err)

	assert.True(t, d("1.029").Equal(got.AmountOut))
	assert.Equal(t, 0, q.calls)
}

func TestEstimate_RefinesLargeAmounts(t *testing.T) {
	q := &quoter{out: "100"}
	est := setup(t,
		&venue.Venue{ID: "A", Price: fixedPrice("1.05"), Fee: fixedFee("2"), Quoter: q},
		&venue.Venue{ID: "B", Price: fixedPrice("1.00")},
	)

	got, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", d("100"))
	require.NoError(t, err)

	// 100/100 = 1.00 per unit, 0.98 after the 2% fee
	assert.Equal(t, types.VenueID("A"), got.Venue)
	assert.True(t, got.Refined)
	assert.True(t, d("0.98").Equal(got.UnitPrice))
	assert.True(t, d("98").Equal(got.AmountOut))
	// (1.029 - 0.98) / 1.029 * 100
	assert.Equal(t, "4.762", got.PriceImpact.StringFixed(3))
	assert.Equal(t, 1, q.calls)
}

func TestEstimate_RefinementFailureFallsBack(t *testing.T) {
	for name, q := range map[string]*quoter{
		"error": {err: errors.New("503")},
		"zero":  {out: "0"},
	} {
		t.Run(name, func(t *testing.T) {
			est := setup(t, &venue.Venue{ID: "A", Price: fixedPrice("1.05"), Fee: fixedFee("2"), Quoter: q})

			got, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", d("100"))
			require.NoError(t, err)
			assert.False(t, got.Refined)
			assert.True(t, d("102.9").Equal(got.AmountOut))
		})
	}
}

func TestEstimate_PropagatesAggregationFailure(t *testing.T) {
	cause := errors.New("down")
	est := New(failingRates{err: errors.Join(types.ErrAggregationFailed, cause)}, nil, nil)

	_, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", d("5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEstimationFailed))
	assert.True(t, errors.Is(err, types.ErrAggregationFailed))
	assert.True(t, errors.Is(err, cause))
}

func TestEstimate_RejectsNonPositiveAmount(t *testing.T) {
	est := setup(t, &venue.Venue{ID: "A", Price: fixedPrice("1")})

	_, err := est.Estimate(context.Background(), "EGLD", "USDC-c76f1f", decimal.Zero)
	assert.True(t, errors.Is(err, types.ErrEstimationFailed))
}
