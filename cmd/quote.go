package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mvx-swap/pkg/parser"
	"mvx-swap/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <token-in> <token-out>",
	Short: "Compare the unit price of a pair across venues",
	Long: `Query every configured venue for the price of one unit of the input token,
apply each venue's fee and rank them best first.

Examples:
  mvx-swap quote EGLD USDC-c76f1f
  mvx-swap quote USDC-c76f1f EGLD --json`,
	Args: cobra.ExactArgs(2),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	tokenIn, tokenOut := parser.NormalizeTokenID(args[0]), parser.NormalizeTokenID(args[1])

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var ranked *types.RankedResult
	err = withSpinner(jsonOutput, "Fetching venue prices...", func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
		defer cancel()
		ranked, err = a.aggregator.Aggregate(ctx, tokenIn, tokenOut)
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(ranked)
	}
	displayRanking(ranked, tokenIn, tokenOut)
	return nil
}

func displayRanking(ranked *types.RankedResult, tokenIn, tokenOut types.TokenID) {
	banner("VENUE PRICES", 70)
	fmt.Printf("\n  Pair: %s -> %s\n\n", color.YellowString(string(tokenIn)), color.YellowString(string(tokenOut)))
	fmt.Printf("  %-3s %-16s %16s %8s %16s\n", "#", "VENUE", "PRICE", "FEE %", "EFFECTIVE")
	fmt.Println("  " + strings.Repeat("-", 64))

	for i, q := range ranked.Quotes {
		name := fmt.Sprintf("%-16s", q.Venue)
		if i == 0 {
			name = color.GreenString(name)
		}
		fmt.Printf("  %-3d %s %16s %8s %16s\n",
			i+1, name,
			q.UnitPrice.StringFixed(6),
			q.FeePercent.StringFixed(2),
			q.EffectivePrice.StringFixed(6))
	}

	fmt.Printf("\n  Best venue:             %s\n", color.GreenString(string(ranked.BestVenue())))
	fmt.Printf("  Savings vs second best: %s%%\n", ranked.SavingsVsSecondBest.StringFixed(3))
	fmt.Printf("  Savings vs worst:       %s%%\n", ranked.SavingsVsWorst.StringFixed(3))
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
