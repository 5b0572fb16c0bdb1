package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// MultiversXClient talks to the MultiversX swap API. Unlike the DEX feeds its
// rates exclude the trading fee, which is published separately.
type MultiversXClient struct {
	api *apiClient
}

type rateResp struct {
	Price *decimal.Decimal `json:"price"`
}

type feeResp struct {
	FeePercentage *decimal.Decimal `json:"feePercentage"`
}

type estimateResp struct {
	AmountOut *decimal.Decimal `json:"amountOut"`
}

// Pair is a tradable token pair
type Pair struct {
	TokenIn  types.TokenID `json:"tokenIn"`
	TokenOut types.TokenID `json:"tokenOut"`
}

// NewMultiversXClient creates a client for the given API base URL
func NewMultiversXClient(baseURL string, opts Options) (*MultiversXClient, error) {
	api, err := newAPIClient(baseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("multiversx client: %w", err)
	}
	return &MultiversXClient{api: api}, nil
}

// UnitPrice returns the fee-exclusive rate of tokenIn in tokenOut
func (c *MultiversXClient) UnitPrice(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error) {
	var resp rateResp
	if err := c.api.getJSON(ctx, pairPath("/rates/", string(tokenIn), string(tokenOut)), nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrPriceFetch, err)
	}
	return requirePositive(resp.Price, "price")
}

// FeePercent returns the swap fee for a pair as a percentage
func (c *MultiversXClient) FeePercent(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error) {
	var resp feeResp
	if err := c.api.getJSON(ctx, "/swap/fee", pairQuery(tokenIn, tokenOut), &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrFeeFetch, err)
	}
	if resp.FeePercentage == nil {
		return decimal.Zero, fmt.Errorf("%w: response has no feePercentage", types.ErrFeeFetch)
	}
	fee := *resp.FeePercentage
	if fee.IsNegative() || fee.GreaterThanOrEqual(hundred) {
		return decimal.Zero, fmt.Errorf("%w: fee %s outside [0, 100)", types.ErrFeeFetch, fee)
	}
	return fee, nil
}

// QuoteAmountOut returns the total tokenOut received for amountIn, before fees
func (c *MultiversXClient) QuoteAmountOut(ctx context.Context, tokenIn, tokenOut types.TokenID, amountIn decimal.Decimal) (decimal.Decimal, error) {
	q := pairQuery(tokenIn, tokenOut)
	q.Set("amountIn", amountIn.String())

	var resp estimateResp
	if err := c.api.getJSON(ctx, "/swap/estimate", q, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrQuoteFetch, err)
	}
	if resp.AmountOut == nil {
		return decimal.Zero, fmt.Errorf("%w: response has no amountOut", types.ErrQuoteFetch)
	}
	if !resp.AmountOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amountOut must be positive, got %s", types.ErrQuoteFetch, resp.AmountOut)
	}
	return *resp.AmountOut, nil
}

// Pairs lists the pairs the swap API can route
func (c *MultiversXClient) Pairs(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	if err := c.api.getJSON(ctx, "/swap/pairs", nil, &pairs); err != nil {
		return nil, fmt.Errorf("failed to get pairs: %w", err)
	}
	return pairs, nil
}

func pairQuery(tokenIn, tokenOut types.TokenID) url.Values {
	q := url.Values{}
	q.Set("tokenIn", string(tokenIn))
	q.Set("tokenOut", string(tokenOut))
	return q
}

// requirePositive checks that a price field was present and usable
func requirePositive(v *decimal.Decimal, field string) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, fmt.Errorf("%w: response has no %s", types.ErrPriceFetch, field)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be positive, got %s", types.ErrPriceFetch, field, v)
	}
	return *v, nil
}
