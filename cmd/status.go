package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mvx-swap/pkg/gateway"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a swap transaction",
	Long: `Check the processing status of a transaction through the network gateway.

Examples:
  mvx-swap status 5d2e...9a1f
  mvx-swap status 5d2e...9a1f --watch
  mvx-swap status 5d2e...9a1f --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the transaction is final")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

type statusOutput struct {
	TxHash string           `json:"tx_hash"`
	Status gateway.TxStatus `json:"status"`
	Final  bool             `json:"final"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	gw, err := a.gateway()
	if err != nil {
		return err
	}

	if watchStatus {
		if jsonOutput {
			return fmt.Errorf("watch mode not supported with JSON output")
		}
		return watchTxStatus(cmd.Context(), gw, txHash)
	}

	var status gateway.TxStatus
	err = withSpinner(jsonOutput, "Checking transaction status...", func() error {
		status, err = gw.TransactionStatus(cmd.Context(), txHash)
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(statusOutput{TxHash: txHash, Status: status, Final: status.Final()})
	}
	displayStatus(txHash, status)
	return nil
}

func watchTxStatus(ctx context.Context, gw *gateway.Client, txHash string) error {
	if watchInterval < 1 {
		watchInterval = 1
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(txHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		status, err := gw.TransactionStatus(ctx, txHash)
		if err != nil {
			color.Red("Error: %v", err)
		} else {
			displayStatus(txHash, status)
			if status.Final() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func displayStatus(txHash string, status gateway.TxStatus) {
	banner("TRANSACTION STATUS", 70)
	fmt.Printf("\n  Tx Hash:       %s\n", color.CyanString(txHash))
	fmt.Printf("  Status:        %s\n", getColoredStatus(status))
	fmt.Printf("  Checked At:    %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status gateway.TxStatus) string {
	label := strings.ToUpper(string(status))

	switch status {
	case gateway.TxSuccess, gateway.TxExecuted:
		return color.GreenString(label)
	case gateway.TxPending:
		return color.YellowString(label)
	case gateway.TxFail, gateway.TxInvalid:
		return color.RedString(label)
	default:
		return label
	}
}
