package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mvx-swap/pkg/api"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve quotes, estimates and unsigned swaps over HTTP",
	Long: `Start the HTTP API. Endpoints:

  GET  /api/v1/quotes?tokenIn=EGLD&tokenOut=USDC-c76f1f
  GET  /api/v1/estimate?tokenIn=EGLD&tokenOut=USDC-c76f1f&amountIn=100
  POST /api/v1/swaps/prepare
  GET  /api/v1/venues
  GET  /healthz
  GET  /metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	slip, err := a.cfg.SlippagePercent()
	if err != nil {
		return err
	}

	addr := a.cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	srv := api.NewServer(a.aggregator, a.service(nil), a.registry, api.Options{
		CORSOrigins:     a.cfg.CORSOrigins,
		DefaultSlippage: slip,
		RequestTimeout:  3 * a.cfg.HTTPTimeout,
	}, a.log.Named("api"))

	a.log.Info("serving",
		zap.String("network", string(a.cfg.NetworkID())),
		zap.Int("venues", a.registry.Len()))

	return srv.Start(cmd.Context(), addr)
}
