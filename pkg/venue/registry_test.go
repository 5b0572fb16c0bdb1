package venue

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

type fixedPrice float64

func (p fixedPrice) UnitPrice(context.Context, types.TokenID, types.TokenID) (decimal.Decimal, error) {
	return decimal.NewFromFloat(float64(p)), nil
}

type nopBuilder struct{}

func (nopBuilder) BuildSwap(context.Context, tx.SwapRequest) (*tx.Transaction, error) {
	return &tx.Transaction{}, nil
}

func TestRegistry_PreservesOrder(t *testing.T) {
	r, err := NewRegistry(
		&Venue{ID: "c", Price: fixedPrice(1)},
		&Venue{ID: "a", Price: fixedPrice(1)},
		&Venue{ID: "b", Price: fixedPrice(1)},
	)
	require.NoError(t, err)

	var ids []types.VenueID
	for _, v := range r.All() {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []types.VenueID{"c", "a", "b"}, ids)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(&Venue{ID: "x"}))
	require.NoError(t, r.Register(&Venue{ID: "x", Price: fixedPrice(1)}))
	assert.Error(t, r.Register(&Venue{ID: "x", Price: fixedPrice(2)}))
}

func TestRegistry_Builder(t *testing.T) {
	r, err := NewRegistry(
		&Venue{ID: types.VenueMultiversX, Price: fixedPrice(1), Builder: nopBuilder{}},
		&Venue{ID: types.VenuePulsar, Price: fixedPrice(1)},
	)
	require.NoError(t, err)

	b, err := r.Builder(types.VenueMultiversX)
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = r.Builder(types.VenuePulsar)
	assert.True(t, errors.Is(err, types.ErrUnsupportedVenue))

	_, err = r.Builder("Unknown DEX")
	assert.True(t, errors.Is(err, types.ErrUnsupportedVenue))
}

func TestVenue_Capabilities(t *testing.T) {
	v := &Venue{ID: "x", Price: fixedPrice(1), Builder: nopBuilder{}}
	assert.Equal(t, []string{"price", "swap"}, v.Capabilities())
}
