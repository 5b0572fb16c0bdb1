package api

import (
	"github.com/shopspring/decimal"

	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// VenueInfo describes a registered venue
type VenueInfo struct {
	ID           types.VenueID `json:"id"`
	Capabilities []string      `json:"capabilities"`
}

// PrepareSwapRequest is the body of POST /api/v1/swaps/prepare
type PrepareSwapRequest struct {
	TokenIn     types.TokenID   `json:"token_in"`
	TokenOut    types.TokenID   `json:"token_out"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	UserAddress string          `json:"user_address"`

	// Percent; the server default applies when omitted
	SlippageTolerance *decimal.Decimal `json:"slippage_tolerance,omitempty"`
}

// Order converts the request into a swap order
func (r PrepareSwapRequest) Order(defaultSlippage decimal.Decimal) types.SwapOrder {
	slippage := defaultSlippage
	if r.SlippageTolerance != nil {
		slippage = *r.SlippageTolerance
	}
	return types.SwapOrder{
		TokenIn:           r.TokenIn,
		TokenOut:          r.TokenOut,
		AmountIn:          r.AmountIn,
		UserAddress:       r.UserAddress,
		SlippageTolerance: slippage,
	}
}

// PrepareSwapResponse carries the unsigned transaction for the best venue
type PrepareSwapResponse struct {
	Venue        types.VenueID   `json:"venue"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	MinAmountOut decimal.Decimal `json:"min_amount_out"`
	PriceImpact  decimal.Decimal `json:"price_impact"`
	Transaction  *tx.Transaction `json:"transaction"`
	Data         string          `json:"data"`
}
