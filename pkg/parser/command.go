package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"mvx-swap/pkg/types"
)

// SwapCommand is a parsed "<amount> <token> to <token>" request
type SwapCommand struct {
	Amount   decimal.Decimal
	TokenIn  types.TokenID
	TokenOut types.TokenID
}

// <amount> <token_in> to <token_out>, tokens either EGLD or TICKER-abcdef
var commandPattern = regexp.MustCompile(`^(?i:swap\s+)?(\d+(?:\.\d+)?)\s+([A-Za-z0-9]+(?:-[A-Fa-f0-9]{6})?)\s+(?i:to)\s+([A-Za-z0-9]+(?:-[A-Fa-f0-9]{6})?)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 EGLD to USDC-c76f1f"
//   - "1.5 egld to MEX-455c57"
//   - "100 USDC-c76f1f to EGLD"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.Join(strings.Fields(command), " ")

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 EGLD to USDC-c76f1f')")
	}

	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", matches[1], err)
	}

	cmd := &SwapCommand{
		Amount:   amount,
		TokenIn:  NormalizeTokenID(matches[2]),
		TokenOut: NormalizeTokenID(matches[3]),
	}
	if err := ValidateSwapCommand(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ValidateSwapCommand validates that a swap command has all required fields
func ValidateSwapCommand(cmd *SwapCommand) error {
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	if cmd.TokenIn == "" {
		return fmt.Errorf("source token is required")
	}
	if cmd.TokenOut == "" {
		return fmt.Errorf("destination token is required")
	}
	if cmd.TokenIn == cmd.TokenOut {
		return fmt.Errorf("source and destination token are the same")
	}
	return nil
}

// NormalizeTokenID upper-cases the ticker and lower-cases the random suffix,
// so "usdc-C76F1F" becomes "USDC-c76f1f" and "egld" becomes "EGLD"
func NormalizeTokenID(id string) types.TokenID {
	id = strings.TrimSpace(id)
	ticker, suffix, found := strings.Cut(id, "-")
	ticker = strings.ToUpper(ticker)
	if !found {
		return types.TokenID(ticker)
	}
	return types.TokenID(ticker + "-" + strings.ToLower(suffix))
}
