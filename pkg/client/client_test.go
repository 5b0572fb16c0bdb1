package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvx-swap/pkg/types"
)

func serve(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestXExchangeClient_UnitPrice(t *testing.T) {
	srv := serve(t, map[string]string{
		"/api/v1/pairs/EGLD-USDC-c76f1f": `{"price": 31.42, "volume24h": 1000}`,
	})
	c, err := NewXExchangeClient(srv.URL+"/api/v1", Options{})
	require.NoError(t, err)

	p, err := c.UnitPrice(context.Background(), "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("31.42").Equal(p))
}

func TestXExchangeClient_MissingField(t *testing.T) {
	srv := serve(t, map[string]string{
		"/pairs/EGLD-MEX-455c57": `{"latestPrice": 1}`,
	})
	c, err := NewXExchangeClient(srv.URL, Options{})
	require.NoError(t, err)

	_, err = c.UnitPrice(context.Background(), "EGLD", "MEX-455c57")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPriceFetch))
	assert.Contains(t, err.Error(), "no price")
}

func TestPulsarClient_UnitPrice(t *testing.T) {
	srv := serve(t, map[string]string{
		"/pools/EGLD-USDC-c76f1f": `{"latestPrice": "30.95"}`,
		"/pools/EGLD-ZERO-000000": `{"latestPrice": 0}`,
	})
	c, err := NewPulsarClient(srv.URL, Options{RateLimit: 100})
	require.NoError(t, err)

	p, err := c.UnitPrice(context.Background(), "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("30.95").Equal(p))

	_, err = c.UnitPrice(context.Background(), "EGLD", "ZERO-000000")
	assert.True(t, errors.Is(err, types.ErrPriceFetch))
}

func TestPulsarClient_HTTPError(t *testing.T) {
	srv := serve(t, nil)
	c, err := NewPulsarClient(srv.URL, Options{})
	require.NoError(t, err)

	_, err = c.UnitPrice(context.Background(), "EGLD", "USDC-c76f1f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPriceFetch))
	assert.Contains(t, err.Error(), "status 404")
}

func TestMultiversXClient(t *testing.T) {
	var estimateQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rates/EGLD-USDC-c76f1f":
			_, _ = w.Write([]byte(`{"price": 1.05}`))
		case "/swap/fee":
			assert.Equal(t, "EGLD", r.URL.Query().Get("tokenIn"))
			assert.Equal(t, "USDC-c76f1f", r.URL.Query().Get("tokenOut"))
			_, _ = w.Write([]byte(`{"feePercentage": 2}`))
		case "/swap/estimate":
			estimateQuery = r.URL.RawQuery
			_, _ = w.Write([]byte(`{"amountOut": "104.2"}`))
		case "/swap/pairs":
			_, _ = w.Write([]byte(`[{"tokenIn":"EGLD","tokenOut":"USDC-c76f1f"},{"tokenIn":"EGLD","tokenOut":"MEX-455c57"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewMultiversXClient(srv.URL+"/", Options{})
	require.NoError(t, err)
	ctx := context.Background()

	p, err := c.UnitPrice(ctx, "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.05").Equal(p))

	fee, err := c.FeePercent(ctx, "EGLD", "USDC-c76f1f")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(fee))

	out, err := c.QuoteAmountOut(ctx, "EGLD", "USDC-c76f1f", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("104.2").Equal(out))
	assert.Contains(t, estimateQuery, "amountIn=100")

	pairs, err := c.Pairs(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, types.TokenID("MEX-455c57"), pairs[1].TokenOut)
}

func TestMultiversXClient_InvalidResponses(t *testing.T) {
	srv := serve(t, map[string]string{
		"/swap/fee":      `{"feePercentage": 100}`,
		"/swap/estimate": `{"amount": 5}`,
		"/rates/EGLD-X":  `not json`,
	})
	c, err := NewMultiversXClient(srv.URL, Options{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.FeePercent(ctx, "EGLD", "X")
	assert.True(t, errors.Is(err, types.ErrFeeFetch))

	_, err = c.QuoteAmountOut(ctx, "EGLD", "X", decimal.NewFromInt(3))
	assert.True(t, errors.Is(err, types.ErrQuoteFetch))

	_, err = c.UnitPrice(ctx, "EGLD", "X")
	assert.True(t, errors.Is(err, types.ErrPriceFetch))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := serve(t, map[string]string{"/rates/EGLD-X": `{"price": 1}`})
	c, err := NewMultiversXClient(srv.URL, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.UnitPrice(ctx, "EGLD", "X")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewXExchangeClient("not a url", Options{})
	assert.Error(t, err)
	_, err = NewPulsarClient("", Options{})
	assert.Error(t, err)
}
