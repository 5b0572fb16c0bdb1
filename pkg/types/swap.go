package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TokenID identifies a fungible asset on the network (e.g. "EGLD", "USDC-c76f1f")
type TokenID string

// NativeToken is the reserved identifier of the network's native asset
const NativeToken TokenID = "EGLD"

// IsNative returns true if the token is the native asset
func (t TokenID) IsNative() bool {
	return t == NativeToken
}

// VenueID identifies a swap venue
type VenueID string

const (
	VenueXExchange  VenueID = "xExchange"
	VenuePulsar     VenueID = "Pulsar Money"
	VenueMultiversX VenueID = "MultiversX"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Quote is a single venue's price for one unit of the input token
type Quote struct {
	Venue      VenueID         `json:"venue"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	FeePercent decimal.Decimal `json:"fee_percent"`
}

// Effective returns the quote adjusted for the venue's trading fee
func (q Quote) Effective() EffectiveQuote {
	return EffectiveQuote{
		Quote:          q,
		EffectivePrice: ApplyFee(q.UnitPrice, q.FeePercent),
	}
}

// EffectiveQuote is a quote whose price already includes the venue fee
type EffectiveQuote struct {
	Quote
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

// ApplyFee returns price * (1 - feePercent/100)
func ApplyFee(price, feePercent decimal.Decimal) decimal.Decimal {
	return price.Mul(one.Sub(feePercent.Div(hundred)))
}

// RankedResult holds effective quotes sorted best first
type RankedResult struct {
	Quotes              []EffectiveQuote `json:"quotes"`
	SavingsVsSecondBest decimal.Decimal  `json:"savings_vs_second_best"`
	SavingsVsWorst      decimal.Decimal  `json:"savings_vs_worst"`
}

// Best returns the top-ranked quote
func (r *RankedResult) Best() (EffectiveQuote, bool) {
	if r == nil || len(r.Quotes) == 0 {
		return EffectiveQuote{}, false
	}
	return r.Quotes[0], true
}

// BestVenue returns the venue of the top-ranked quote, or "" if there is none
func (r *RankedResult) BestVenue() VenueID {
	best, ok := r.Best()
	if !ok {
		return ""
	}
	return best.Venue
}

// Find returns the quote for a venue
func (r *RankedResult) Find(venue VenueID) (EffectiveQuote, bool) {
	if r == nil {
		return EffectiveQuote{}, false
	}
	for _, q := range r.Quotes {
		if q.Venue == venue {
			return q, true
		}
	}
	return EffectiveQuote{}, false
}

// SwapEstimate is the expected outcome of swapping a concrete amount
type SwapEstimate struct {
	Venue     VenueID         `json:"venue"`
	TokenIn   TokenID         `json:"token_in"`
	TokenOut  TokenID         `json:"token_out"`
	AmountIn  decimal.Decimal `json:"amount_in"`
	AmountOut decimal.Decimal `json:"amount_out"`

	// UnitPrice is the fee-inclusive price used for AmountOut. It differs from the
	// ranked best price when the venue refined it with an amount-aware quote.
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Refined     bool            `json:"refined"`
	PriceImpact decimal.Decimal `json:"price_impact"`

	AllQuotes *RankedResult `json:"all_quotes"`
}

// SwapSummary is the caller-facing view of an estimate
type SwapSummary struct {
	BestVenue          VenueID         `json:"best_venue"`
	EstimatedAmountOut decimal.Decimal `json:"estimated_amount_out"`
	PriceImpact        decimal.Decimal `json:"price_impact"`
	AllQuotes          *RankedResult   `json:"all_quotes"`
}

// SwapOrder is a request to swap on the best venue
type SwapOrder struct {
	TokenIn     TokenID         `json:"token_in"`
	TokenOut    TokenID         `json:"token_out"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	UserAddress string          `json:"user_address"`

	// SlippageTolerance is a percentage: 0.5 means 0.5%
	SlippageTolerance decimal.Decimal `json:"slippage_tolerance"`
}

// DefaultSlippage is used when an order does not specify one
var DefaultSlippage = decimal.RequireFromString("0.5")

// Validate checks if the order has valid parameters
func (o *SwapOrder) Validate() error {
	if o.TokenIn == "" {
		return fmt.Errorf("%w: input token is required", ErrInvalidOrder)
	}
	if o.TokenOut == "" {
		return fmt.Errorf("%w: output token is required", ErrInvalidOrder)
	}
	if o.TokenIn == o.TokenOut {
		return fmt.Errorf("%w: input and output token are the same", ErrInvalidOrder)
	}
	if !o.AmountIn.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidOrder)
	}
	if o.UserAddress == "" {
		return fmt.Errorf("%w: user address is required", ErrInvalidOrder)
	}
	if o.SlippageTolerance.IsNegative() || o.SlippageTolerance.GreaterThanOrEqual(hundred) {
		return fmt.Errorf("%w: slippage tolerance must be in [0, 100)", ErrInvalidOrder)
	}
	return nil
}

// MinAmountOut returns amountOut * (1 - slippageTolerance/100)
func MinAmountOut(amountOut, slippageTolerance decimal.Decimal) decimal.Decimal {
	return ApplyFee(amountOut, slippageTolerance)
}

// ExecutionStatus is the outcome of a swap execution
type ExecutionStatus string

const (
	StatusSuccess ExecutionStatus = "success"
	StatusFailure ExecutionStatus = "failure"
)

// ExecutionResult records a single ExecuteSwap call
type ExecutionResult struct {
	ID                 string          `json:"id"`
	Status             ExecutionStatus `json:"status"`
	Venue              VenueID         `json:"venue,omitempty"`
	TxHash             string          `json:"tx_hash,omitempty"`
	TokenIn            TokenID         `json:"token_in"`
	TokenOut           TokenID         `json:"token_out"`
	AmountIn           decimal.Decimal `json:"amount_in"`
	EstimatedAmountOut decimal.Decimal `json:"estimated_amount_out"`
	MinAmountOut       decimal.Decimal `json:"min_amount_out"`
	Timestamp          time.Time       `json:"timestamp"`
	Error              string          `json:"error,omitempty"`
}
