package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"mvx-swap/pkg/parser"
	"mvx-swap/pkg/swap"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/wallet"
)

var (
	senderAddr string
	pemFile    string
	slippage   string
	noConfirm  bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <token-in> to <token-out>",
	Short: "Build, and optionally sign and send, a swap on the best venue",
	Long: `Find the venue with the best fee-adjusted price and build the swap
transaction for it.

Without --pem the unsigned transaction is printed so it can be signed
elsewhere. With --pem the key is read for this call only, the transaction is
signed and broadcast through the gateway.

IMPORTANT:
  - --sender is required when no --pem is given
  - --slippage is a percentage (0.5 means 0.5%)

Examples:
  # Unsigned transaction for an external signer
  mvx-swap swap 100 EGLD to USDC-c76f1f --sender erd1...

  # Sign and broadcast
  mvx-swap swap 100 EGLD to USDC-c76f1f --pem wallet.pem --slippage 1

  # Skip the confirmation prompt
  mvx-swap swap 25 USDC-c76f1f to EGLD --pem wallet.pem --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&senderAddr, "sender", "", "Sender address (erd1...) for unsigned transactions")
	swapCmd.Flags().StringVar(&pemFile, "pem", "", "Wallet PEM file used to sign and send the transaction")
	swapCmd.Flags().StringVar(&slippage, "slippage", "", "Slippage tolerance in percent (default from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) error {
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

	slip, err := a.cfg.SlippagePercent()
	if err != nil {
		return err
	}
	if slippage != "" {
		if slip, err = decimal.NewFromString(slippage); err != nil {
			return fmt.Errorf("invalid slippage %q: %w", slippage, err)
		}
	}

	var w *wallet.Wallet
	if pemFile != "" {
		signer, err := wallet.LoadPEM(pemFile)
		if err != nil {
			return err
		}
		gw, err := a.gateway()
		if err != nil {
			return err
		}
		w = wallet.New(signer, gw, a.log.Named("wallet"))
		if senderAddr != "" && senderAddr != w.Address() {
			return fmt.Errorf("--sender %s does not match the key in %s (%s)", senderAddr, pemFile, w.Address())
		}
		senderAddr = w.Address()
	}
	if senderAddr == "" {
		return fmt.Errorf("sender address is required. Use --sender or --pem")
	}

	order := types.SwapOrder{
		TokenIn:           req.TokenIn,
		TokenOut:          req.TokenOut,
		AmountIn:          req.Amount,
		UserAddress:       senderAddr,
		SlippageTolerance: slip,
	}

	var prepared *swap.Prepared
	err = withSpinner(jsonOutput, "Finding best venue...", func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*a.cfg.HTTPTimeout)
		defer cancel()
		prepared, err = a.service(nil).PrepareSwap(ctx, order)
		return err
	})
	if err != nil {
		return err
	}

	if w == nil {
		if jsonOutput {
			return printJSON(prepared)
		}
		displayPrepared(prepared, order)
		fmt.Println("Unsigned transaction:")
		return printJSON(prepared.Transaction)
	}

	if !jsonOutput {
		displayPrepared(prepared, order)
	}
	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			return nil
		}
	}

	var result *types.ExecutionResult
	err = withSpinner(jsonOutput, "Signing and sending transaction...", func() error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
		defer cancel()
		result, err = a.service(w).ExecutePrepared(ctx, order, prepared)
		return err
	})

	if jsonOutput {
		if result != nil {
			_ = printJSON(result)
		}
		return err
	}
	if err != nil {
		return err
	}

	color.Green("\n✓ Swap sent on %s", result.Venue)
	fmt.Printf("  Transaction hash: %s\n", color.CyanString(result.TxHash))
	fmt.Printf("  Minimum received: %s %s\n", result.MinAmountOut.StringFixed(6), result.TokenOut)
	fmt.Println("\nYou can monitor the transaction using:")
	color.Cyan("  mvx-swap status %s\n", result.TxHash)
	return nil
}

func displayPrepared(p *swap.Prepared, order types.SwapOrder) {
	banner("SWAP QUOTE", 60)
	fmt.Printf("\n  Venue:             %s\n", color.GreenString(string(p.Estimate.Venue)))
	fmt.Printf("  From:              %s %s\n", order.AmountIn, color.YellowString(string(order.TokenIn)))
	fmt.Printf("  To:                ~%s %s\n", p.Estimate.AmountOut.StringFixed(6), color.YellowString(string(order.TokenOut)))
	fmt.Printf("  Minimum received:  %s %s\n", p.MinAmountOut.StringFixed(6), order.TokenOut)
	fmt.Printf("  Slippage:          %s%%\n", order.SlippageTolerance)
	fmt.Printf("  Price impact:      %s%%\n", p.Estimate.PriceImpact.StringFixed(3))
	fmt.Printf("  Contract:          %s\n", color.HiBlackString(p.Transaction.Receiver))
	fmt.Printf("  Data:              %s\n", color.HiBlackString(p.Transaction.DataString()))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
