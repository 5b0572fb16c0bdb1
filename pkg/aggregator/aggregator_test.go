package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

type stubPrice struct {
	price decimal.Decimal
	err   error
	calls atomic.Int32
}

func (s *stubPrice) UnitPrice(context.Context, types.TokenID, types.TokenID) (decimal.Decimal, error) {
	s.calls.Add(1)
	return s.price, s.err
}

type stubFee struct {
	fee decimal.Decimal
	err error
}

func (s stubFee) FeePercent(context.Context, types.TokenID, types.TokenID) (decimal.Decimal, error) {
	return s.fee, s.err
}

type stubQuoter struct {
	out decimal.Decimal
	err error
}

func (s stubQuoter) QuoteAmountOut(context.Context, types.TokenID, types.TokenID, decimal.Decimal) (decimal.Decimal, error) {
	return s.out, s.err
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(s string) *stubPrice {
	return &stubPrice{price: d(s)}
}

func newAggregator(t *testing.T, venues ...*venue.Venue) *Aggregator {
	t.Helper()
	reg, err := venue.NewRegistry(venues...)
	require.NoError(t, err)
	return New(reg, zap.NewNop())
}

func TestAggregate_RanksByEffectivePrice(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: price("1.02")},
		&venue.Venue{ID: "B", Price: price("1.00"), Fee: stubFee{fee: d("0")}},
		&venue.Venue{ID: "C", Price: price("1.05"), Fee: stubFee{fee: d("2")}},
	)

	ranked, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	require.Len(t, ranked.Quotes, 3)

	assert.Equal(t, types.VenueID("C"), ranked.BestVenue())
	assert.True(t, d("1.029").Equal(ranked.Quotes[0].EffectivePrice))
	assert.Equal(t, types.VenueID("A"), ranked.Quotes[1].Venue)
	assert.Equal(t, types.VenueID("B"), ranked.Quotes[2].Venue)

	// (1.029 - 1.02) / 1.02 * 100
	assert.Equal(t, "0.882", ranked.SavingsVsSecondBest.StringFixed(3))
	// (1.029 - 1.00) / 1.00 * 100
	assert.Equal(t, "2.900", ranked.SavingsVsWorst.StringFixed(3))
}

func TestAggregate_SingleVenueHasNoSavings(t *testing.T) {
	agg := newAggregator(t, &venue.Venue{ID: "A", Price: price("3.5")})

	ranked, err := agg.Aggregate(context.Background(), "EGLD", "MEX-455c57")
	require.NoError(t, err)

	assert.Equal(t, types.VenueID("A"), ranked.BestVenue())
	assert.True(t, ranked.SavingsVsSecondBest.IsZero())
	assert.True(t, ranked.SavingsVsWorst.IsZero())
}

func TestAggregate_NoVenues(t *testing.T) {
	agg := newAggregator(t)

	_, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	assert.True(t, errors.Is(err, types.ErrAggregationFailed))
}

func TestAggregate_ExcludesFailedVenues(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: &stubPrice{err: errors.New("connection refused")}},
		&venue.Venue{ID: "B", Price: price("0.98")},
		&venue.Venue{ID: "C", Price: price("0")},
	)

	ranked, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	require.Len(t, ranked.Quotes, 1)
	assert.Equal(t, types.VenueID("B"), ranked.BestVenue())
}

func TestAggregate_FeeFailureExcludesVenue(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: price("1.10"), Fee: stubFee{err: errors.New("timeout")}},
		&venue.Venue{ID: "B", Price: price("1.00")},
	)

	ranked, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	require.Len(t, ranked.Quotes, 1)
	assert.Equal(t, types.VenueID("B"), ranked.BestVenue())
}

func TestAggregate_RejectsOutOfRangeFee(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: price("1.10"), Fee: stubFee{fee: d("100")}},
		&venue.Venue{ID: "B", Price: price("1.00"), Fee: stubFee{fee: d("-1")}},
	)

	_, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAggregationFailed))
	assert.True(t, errors.Is(err, types.ErrFeeFetch))
}

func TestAggregate_AllFailJoinsCauses(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: &stubPrice{err: errors.New("boom")}},
		&venue.Venue{ID: "B", Price: &stubPrice{err: errors.New("bust")}},
	)

	_, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAggregationFailed))
	assert.True(t, errors.Is(err, types.ErrPriceFetch))

	var venueErr *types.VenueError
	require.True(t, errors.As(err, &venueErr))
	assert.Contains(t, err.Error(), "A: ")
	assert.Contains(t, err.Error(), "B: ")
}

func TestAggregate_TiesKeepRegistrationOrder(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "first", Price: price("2")},
		&venue.Venue{ID: "second", Price: price("2")},
		&venue.Venue{ID: "third", Price: price("2")},
	)

	for i := 0; i < 20; i++ {
		ranked, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
		require.NoError(t, err)
		assert.Equal(t, types.VenueID("first"), ranked.Quotes[0].Venue)
		assert.Equal(t, types.VenueID("second"), ranked.Quotes[1].Venue)
		assert.Equal(t, types.VenueID("third"), ranked.Quotes[2].Venue)
		assert.True(t, ranked.SavingsVsSecondBest.IsZero())
	}
}

func TestAggregate_QueriesEveryVenueEachCall(t *testing.T) {
	a := price("1.5")
	b := price("1.4")
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: a},
		&venue.Venue{ID: "B", Price: b},
	)

	for i := 0; i < 3; i++ {
		_, err := agg.Aggregate(context.Background(), "EGLD", "USDC-c76f1f")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), a.calls.Load())
	assert.Equal(t, int32(3), b.calls.Load())
}

func TestAggregate_IncompletePair(t *testing.T) {
	agg := newAggregator(t, &venue.Venue{ID: "A", Price: price("1")})

	_, err := agg.Aggregate(context.Background(), "", "USDC-c76f1f")
	assert.True(t, errors.Is(err, types.ErrAggregationFailed))
}

func TestAggregateAt_UsesAmountQuote(t *testing.T) {
	unit := price("1.05")
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: unit, Quoter: stubQuoter{out: d("100")}},
		&venue.Venue{ID: "B", Price: price("1.01")},
	)

	ranked, err := agg.AggregateAt(context.Background(), "EGLD", "USDC-c76f1f", d("100"))
	require.NoError(t, err)

	// A quotes 100 for 100 units: 1.00 per unit, below B
	assert.Equal(t, types.VenueID("B"), ranked.BestVenue())
	q, ok := ranked.Find("A")
	require.True(t, ok)
	assert.True(t, d("1").Equal(q.UnitPrice))
	assert.Equal(t, int32(0), unit.calls.Load())
}

func TestAggregateAt_FallsBackToUnitPrice(t *testing.T) {
	agg := newAggregator(t,
		&venue.Venue{ID: "A", Price: price("1.05"), Quoter: stubQuoter{err: errors.New("no route")}},
	)

	ranked, err := agg.AggregateAt(context.Background(), "EGLD", "USDC-c76f1f", d("100"))
	require.NoError(t, err)

	best, ok := ranked.Best()
	require.True(t, ok)
	assert.True(t, d("1.05").Equal(best.UnitPrice))
}

func TestRank(t *testing.T) {
	ranked := Rank([]types.Quote{
		{Venue: "low", UnitPrice: d("0.9"), FeePercent: decimal.Zero},
		{Venue: "high", UnitPrice: d("1.1"), FeePercent: d("1")},
	})

	require.Len(t, ranked.Quotes, 2)
	assert.Equal(t, types.VenueID("high"), ranked.BestVenue())
	assert.True(t, ranked.SavingsVsSecondBest.Equal(ranked.SavingsVsWorst))

	empty := Rank(nil)
	assert.Empty(t, empty.Quotes)
	assert.Equal(t, types.VenueID(""), empty.BestVenue())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidatePrice(d("0.0001")))
	assert.Error(t, ValidatePrice(decimal.Zero))
	assert.Error(t, ValidatePrice(d("-2")))

	assert.NoError(t, ValidateFee(decimal.Zero))
	assert.NoError(t, ValidateFee(d("99.99")))
	assert.Error(t, ValidateFee(d("100")))
	assert.Error(t, ValidateFee(d("-0.1")))
}
