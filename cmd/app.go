package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mvx-swap/config"
	"mvx-swap/pkg/aggregator"
	"mvx-swap/pkg/client"
	"mvx-swap/pkg/estimator"
	"mvx-swap/pkg/gateway"
	"mvx-swap/pkg/logging"
	"mvx-swap/pkg/swap"
	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
	"mvx-swap/pkg/venue"
)

// app holds the components shared by all commands
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	registry   *venue.Registry
	aggregator *aggregator.Aggregator
	estimator  *estimator.Estimator
	multiversx *client.MultiversXClient
}

// newApp loads the configuration and wires the venues. jsonLogs selects the
// structured encoder used by the server.
func newApp(cmd *cobra.Command, jsonLogs bool) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.NewLogger(level, jsonLogs)
	if err != nil {
		return nil, err
	}

	registry, mvx, err := buildRegistry(cfg, log)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(registry, log.Named("aggregator"))
	return &app{
		cfg:        cfg,
		log:        log,
		registry:   registry,
		aggregator: agg,
		estimator:  estimator.New(agg, registry, log.Named("estimator")),
		multiversx: mvx,
	}, nil
}

// buildRegistry creates one venue per enabled configuration entry. Venues
// without a contract address only contribute quotes.
func buildRegistry(cfg *config.Config, log *zap.Logger) (*venue.Registry, *client.MultiversXClient, error) {
	opts := client.Options{
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
		Logger:    log.Named("client"),
	}
	decimals := cfg.TokenDecimals()

	registry, err := venue.NewRegistry()
	if err != nil {
		return nil, nil, err
	}

	var mvx *client.MultiversXClient
	for _, vc := range cfg.EnabledVenues() {
		v := &venue.Venue{ID: types.VenueID(vc.Name)}

		switch vc.Kind {
		case config.KindXExchange:
			c, err := client.NewXExchangeClient(vc.APIURL, opts)
			if err != nil {
				return nil, nil, err
			}
			v.Price = c
		case config.KindPulsar:
			c, err := client.NewPulsarClient(vc.APIURL, opts)
			if err != nil {
				return nil, nil, err
			}
			v.Price = c
		case config.KindMultiversX:
			c, err := client.NewMultiversXClient(vc.APIURL, opts)
			if err != nil {
				return nil, nil, err
			}
			v.Price, v.Fee, v.Quoter = c, c, c
			if mvx == nil {
				mvx = c
			}
		default:
			return nil, nil, fmt.Errorf("venue %s: unknown kind %q", vc.Name, vc.Kind)
		}

		if vc.Contract != "" {
			b, err := tx.NewContractBuilder(tx.ContractConfig{
				Venue:    v.ID,
				Contract: vc.Contract,
				Function: vc.Function,
				GasLimit: vc.GasLimit,
				GasPrice: cfg.GasPrice,
				Network:  cfg.NetworkID(),
			}, decimals)
			if err != nil {
				return nil, nil, err
			}
			v.Builder = b
		} else {
			log.Debug("venue has no swap contract, quotes only", zap.String("venue", vc.Name))
		}

		if err := registry.Register(v); err != nil {
			return nil, nil, err
		}
	}

	if registry.Len() == 0 {
		return nil, nil, fmt.Errorf("no venues enabled in configuration")
	}
	return registry, mvx, nil
}

func (a *app) gateway() (*gateway.Client, error) {
	return gateway.NewClient(a.cfg.GatewayURL, a.cfg.HTTPTimeout, a.log.Named("gateway"))
}

// service builds the swap executor, optionally with a wallet
func (a *app) service(w swap.Wallet) *swap.Service {
	return swap.NewService(a.estimator, a.registry, w, a.log.Named("swap"))
}
