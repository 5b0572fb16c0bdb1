package client

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/types"
)

// XExchangeClient reads pair prices from the xExchange API
type XExchangeClient struct {
	api *apiClient
}

type xExchangePairResp struct {
	Price *decimal.Decimal `json:"price"`
}

// NewXExchangeClient creates a client for the given API base URL
func NewXExchangeClient(baseURL string, opts Options) (*XExchangeClient, error) {
	api, err := newAPIClient(baseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("xExchange client: %w", err)
	}
	return &XExchangeClient{api: api}, nil
}

// UnitPrice returns how much tokenOut one tokenIn buys, fee included
func (c *XExchangeClient) UnitPrice(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error) {
	var resp xExchangePairResp
	if err := c.api.getJSON(ctx, pairPath("/pairs/", string(tokenIn), string(tokenOut)), nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrPriceFetch, err)
	}
	return requirePositive(resp.Price, "price")
}
