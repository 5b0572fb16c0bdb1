package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mvx-swap/pkg/client"
	"mvx-swap/pkg/types"
)

var (
	filterSymbol string
	filterToken  string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens"},
	Short:   "List the tokens with known decimals",
	Long: `List the tokens configured with their decimals. Swaps involving a token
missing from this table are refused; add it under "tokens" in the config file.

Examples:
  mvx-swap list-tokens
  mvx-swap list-tokens --symbol USDC`,
	RunE: runListTokens,
}

var pairsCmd = &cobra.Command{
	Use:     "list-pairs",
	Aliases: []string{"pairs"},
	Short:   "List the pairs the MultiversX swap API can route",
	Long: `List the pairs reported by the MultiversX swap API.

Examples:
  mvx-swap list-pairs
  mvx-swap list-pairs --token EGLD`,
	RunE: runListPairs,
}

type tokenInfo struct {
	Token    types.TokenID `json:"token"`
	Decimals int32         `json:"decimals"`
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(pairsCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token ticker")
	pairsCmd.Flags().StringVar(&filterToken, "token", "", "Only pairs containing this token")
}

func runListTokens(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var tokens []tokenInfo
	for id, dec := range a.cfg.TokenDecimals() {
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(string(id)), strings.ToUpper(filterSymbol)) {
			continue
		}
		tokens = append(tokens, tokenInfo{Token: id, Decimals: dec})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Token < tokens[j].Token })

	if jsonOutput {
		return printJSON(tokens)
	}
	displayTokens(tokens)
	return nil
}

func displayTokens(tokens []tokenInfo) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	banner("KNOWN TOKENS", 50)
	for _, t := range tokens {
		fmt.Printf("  %-24s  %2d decimals\n", color.YellowString(string(t.Token)), t.Decimals)
	}
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}

func runListPairs(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if a.multiversx == nil {
		return fmt.Errorf("no multiversx venue is enabled")
	}

	var pairs []client.Pair
	err = withSpinner(jsonOutput, "Fetching available pairs...", func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
		defer cancel()
		pairs, err = a.multiversx.Pairs(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if filterToken != "" {
		token := types.TokenID(filterToken)
		var filtered []client.Pair
		for _, p := range pairs {
			if strings.EqualFold(string(p.TokenIn), string(token)) || strings.EqualFold(string(p.TokenOut), string(token)) {
				filtered = append(filtered, p)
			}
		}
		pairs = filtered
	}

	if jsonOutput {
		return printJSON(pairs)
	}

	if len(pairs) == 0 {
		fmt.Println("\nNo pairs found matching the criteria.")
		return nil
	}
	banner("AVAILABLE PAIRS", 60)
	for _, p := range pairs {
		fmt.Printf("  %s -> %s\n", color.YellowString(string(p.TokenIn)), color.YellowString(string(p.TokenOut)))
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nTotal: %d pairs\n\n", len(pairs))
	return nil
}
