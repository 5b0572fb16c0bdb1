package client

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/types"
)

// PulsarClient reads pool prices from the Pulsar Money API
type PulsarClient struct {
	api *apiClient
}

type pulsarPoolResp struct {
	LatestPrice *decimal.Decimal `json:"latestPrice"`
}

// NewPulsarClient creates a client for the given API base URL
func NewPulsarClient(baseURL string, opts Options) (*PulsarClient, error) {
	api, err := newAPIClient(baseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("pulsar client: %w", err)
	}
	return &PulsarClient{api: api}, nil
}

// UnitPrice returns the latest pool price of tokenIn in tokenOut
func (c *PulsarClient) UnitPrice(ctx context.Context, tokenIn, tokenOut types.TokenID) (decimal.Decimal, error) {
	var resp pulsarPoolResp
	if err := c.api.getJSON(ctx, pairPath("/pools/", string(tokenIn), string(tokenOut)), nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", types.ErrPriceFetch, err)
	}
	return requirePositive(resp.LatestPrice, "latestPrice")
}
