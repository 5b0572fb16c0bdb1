package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mvx-swap",
	Short: "Best-rate token swaps across MultiversX DEX venues",
	Long: `mvx-swap compares swap rates across xExchange, Pulsar Money and the MultiversX
swap API, picks the venue with the best fee-adjusted price and builds the swap
transaction for it.

Examples:
  mvx-swap quote EGLD USDC-c76f1f
  mvx-swap estimate 100 EGLD to USDC-c76f1f
  mvx-swap swap 100 EGLD to USDC-c76f1f --sender erd1...
  mvx-swap swap 100 EGLD to USDC-c76f1f --pem wallet.pem
  mvx-swap status <tx-hash>
  mvx-swap serve`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default is $HOME/.mvx-swap.yaml)")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// withSpinner runs fn while a spinner is shown, unless JSON output is requested
func withSpinner(jsonOutput bool, suffix string, fn func() error) error {
	if jsonOutput {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	err := fn()
	s.Stop()
	return err
}

func banner(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	pad := (width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Println(strings.Repeat(" ", pad) + title)
	fmt.Println(strings.Repeat("=", width))
}
