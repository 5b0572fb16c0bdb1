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

var estimateCmd = &cobra.Command{
	Use:   "estimate <amount> <token-in> to <token-out>",
	Short: "Estimate the output of a swap on the best venue",
	Long: `Rank all venues and estimate how much of the output token a swap would
return on the best one. Large amounts are re-quoted on venues that support
amount-aware quotes, which exposes the price impact.

Examples:
  mvx-swap estimate 100 EGLD to USDC-c76f1f
  mvx-swap estimate 2500 USDC-c76f1f to EGLD --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var summary *types.SwapSummary
	err = withSpinner(jsonOutput, "Estimating swap...", func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*a.cfg.HTTPTimeout)
		defer cancel()
		summary, err = a.service(nil).EstimateSwap(ctx, req.TokenIn, req.TokenOut, req.Amount)
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(summary)
	}
	displayEstimate(summary, req)
	return nil
}

func displayEstimate(summary *types.SwapSummary, req *parser.SwapCommand) {
	banner("SWAP ESTIMATE", 60)
	fmt.Printf("\n  From:          %s %s\n", req.Amount, color.YellowString(string(req.TokenIn)))
	fmt.Printf("  To:            ~%s %s\n", summary.EstimatedAmountOut.StringFixed(6), color.YellowString(string(req.TokenOut)))
	fmt.Printf("  Best venue:    %s\n", color.GreenString(string(summary.BestVenue)))
	fmt.Printf("  Price impact:  %s%%\n", summary.PriceImpact.StringFixed(3))

	if summary.AllQuotes != nil && len(summary.AllQuotes.Quotes) > 1 {
		fmt.Println("\n  All venues:")
		for _, q := range summary.AllQuotes.Quotes {
			fmt.Printf("    %-16s %s\n", q.Venue, q.EffectivePrice.StringFixed(6))
		}
	}
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
