package tx

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/types"
)

// NativeDecimals is the precision of EGLD
const NativeDecimals int32 = 18

const esdtTransfer = "ESDTTransfer"

// SwapRequest carries everything a builder needs to encode a swap
type SwapRequest struct {
	TokenIn      types.TokenID
	TokenOut     types.TokenID
	AmountIn     decimal.Decimal
	MinAmountOut decimal.Decimal
	Sender       string
}

// ContractConfig describes the swap entry point of a venue
type ContractConfig struct {
	Venue    types.VenueID
	Contract string
	Function string
	GasLimit uint64
	GasPrice uint64
	Network  Network
}

// ContractBuilder builds swap calls against a single venue contract
type ContractBuilder struct {
	cfg      ContractConfig
	decimals map[types.TokenID]int32
}

// NewContractBuilder creates a builder for one venue
func NewContractBuilder(cfg ContractConfig, decimals map[types.TokenID]int32) (*ContractBuilder, error) {
	if !IsValidAddress(cfg.Contract) {
		return nil, fmt.Errorf("venue %s: invalid contract address %q", cfg.Venue, cfg.Contract)
	}
	if cfg.Function == "" {
		return nil, fmt.Errorf("venue %s: swap function is required", cfg.Venue)
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.GasPrice == 0 {
		cfg.GasPrice = DefaultGasPrice
	}
	if cfg.Network == "" {
		cfg.Network = Testnet
	}

	table := make(map[types.TokenID]int32, len(decimals))
	for k, v := range decimals {
		table[k] = v
	}

	return &ContractBuilder{cfg: cfg, decimals: table}, nil
}

// Venue returns the venue this builder targets
func (b *ContractBuilder) Venue() types.VenueID {
	return b.cfg.Venue
}

// BuildSwap encodes a swap call. Native input is sent as the transaction value;
// any other token travels as an ESDTTransfer wrapping the contract call.
func (b *ContractBuilder) BuildSwap(_ context.Context, req SwapRequest) (*Transaction, error) {
	if err := b.validate(req); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrTransactionBuild, err)
	}

	decIn, err := b.decimalsOf(req.TokenIn)
	if err != nil {
		return nil, err
	}
	decOut, err := b.decimalsOf(req.TokenOut)
	if err != nil {
		return nil, err
	}

	amountIn := ToBaseUnits(req.AmountIn, decIn)
	minOut := ToBaseUnits(req.MinAmountOut, decOut)
	if amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount %s is below one base unit of %s", types.ErrTransactionBuild, req.AmountIn, req.TokenIn)
	}

	var (
		data  string
		value = "0"
	)
	if req.TokenIn.IsNative() {
		value = amountIn.String()
		data = joinArgs(b.cfg.Function,
			hexString(string(req.TokenIn)),
			hexString(string(req.TokenOut)),
			hexInt(amountIn),
			hexInt(minOut),
		)
	} else {
		data = joinArgs(esdtTransfer,
			hexString(string(req.TokenIn)),
			hexInt(amountIn),
			hexString(b.cfg.Function),
			hexString(string(req.TokenOut)),
			hexInt(minOut),
		)
	}

	return &Transaction{
		Value:    value,
		Receiver: b.cfg.Contract,
		Sender:   req.Sender,
		GasPrice: b.cfg.GasPrice,
		GasLimit: b.cfg.GasLimit,
		Data:     []byte(data),
		ChainID:  b.cfg.Network.ChainID(),
		Version:  txVersion,
		Venue:    b.cfg.Venue,
	}, nil
}

func (b *ContractBuilder) validate(req SwapRequest) error {
	if req.TokenIn == "" || req.TokenOut == "" {
		return fmt.Errorf("token pair is incomplete")
	}
	if !req.AmountIn.IsPositive() {
		return fmt.Errorf("amount in must be greater than 0")
	}
	if req.MinAmountOut.IsNegative() {
		return fmt.Errorf("minimum amount out cannot be negative")
	}
	if !IsValidAddress(req.Sender) {
		return fmt.Errorf("invalid sender address %q", req.Sender)
	}
	return nil
}

// decimalsOf looks up the precision of a token. Unknown tokens are rejected:
// a wrong guess scales the transferred amount by powers of ten.
func (b *ContractBuilder) decimalsOf(token types.TokenID) (int32, error) {
	if dec, ok := b.decimals[token]; ok {
		return dec, nil
	}
	if token.IsNative() {
		return NativeDecimals, nil
	}
	return 0, fmt.Errorf("%w: decimals of %s are unknown, add the token to the tokens table", types.ErrTransactionBuild, token)
}

// ToBaseUnits converts a token amount into its integer base units, truncating
// anything below one unit.
func ToBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Truncate(0).BigInt()
}

func hexString(s string) string {
	return hex.EncodeToString([]byte(s))
}

func hexInt(n *big.Int) string {
	if n.Sign() == 0 {
		return ""
	}
	return hex.EncodeToString(n.Bytes())
}

func joinArgs(fn string, args ...string) string {
	return fn + "@" + strings.Join(args, "@")
}
