package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"mvx-swap/pkg/gateway"
	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

// Venue kinds select the client used for quotes
const (
	KindXExchange  = "xexchange"
	KindPulsar     = "pulsar"
	KindMultiversX = "multiversx"
)

// VenueConfig describes one swap venue
type VenueConfig struct {
	Name     string `mapstructure:"name"`
	Kind     string `mapstructure:"kind"`
	APIURL   string `mapstructure:"api_url"`
	Contract string `mapstructure:"contract"`
	Function string `mapstructure:"function"`
	GasLimit uint64 `mapstructure:"gas_limit"`
	Enabled  bool   `mapstructure:"enabled"`
}

// Config holds the application configuration
type Config struct {
	Network     string           `mapstructure:"network"`
	GatewayURL  string           `mapstructure:"gateway_url"`
	Venues      []VenueConfig    `mapstructure:"venues"`
	Tokens      map[string]int32 `mapstructure:"tokens"`
	Slippage    string           `mapstructure:"slippage"`
	GasPrice    uint64           `mapstructure:"gas_price"`
	HTTPTimeout time.Duration    `mapstructure:"http_timeout"`
	RateLimit   float64          `mapstructure:"rate_limit"`
	LogLevel    string           `mapstructure:"log_level"`
	ListenAddr  string           `mapstructure:"listen_addr"`
	CORSOrigins []string         `mapstructure:"cors_origins"`

	networkValue tx.Network
}

// DefaultVenues are the venues known out of the box. Only MultiversX ships with
// a swap contract; the others quote until a contract is configured.
func DefaultVenues() []VenueConfig {
	return []VenueConfig{
		{
			Name:     string(types.VenueXExchange),
			Kind:     KindXExchange,
			APIURL:   "https://api.xexchange.com/api/v1",
			Function: "swapTokensFixedInput",
			Enabled:  true,
		},
		{
			Name:     string(types.VenuePulsar),
			Kind:     KindPulsar,
			APIURL:   "https://api.pulsar.money",
			Function: "swap",
			Enabled:  true,
		},
		{
			Name:     string(types.VenueMultiversX),
			Kind:     KindMultiversX,
			APIURL:   "https://api.multiversx.com",
			Contract: "erd1qqqqqqqqqqqqqpgq72l6vl07fkn3alyfq753mcy4nakm0l72396qkcud5x",
			Function: "swap",
			Enabled:  true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", string(tx.Mainnet))
	v.SetDefault("venues", venueDefaults())
	v.SetDefault("tokens", map[string]int32{
		"EGLD":         18,
		"WEGLD-bd4d79": 18,
		"USDC-c76f1f":  6,
		"USDT-f8c08c":  6,
		"MEX-455c57":   18,
	})
	v.SetDefault("slippage", types.DefaultSlippage.String())
	v.SetDefault("gas_price", tx.DefaultGasPrice)
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_origins", []string{"*"})
}

// venueDefaults renders DefaultVenues in the shape viper unmarshals from files
func venueDefaults() []map[string]any {
	out := make([]map[string]any, 0, 3)
	for _, vc := range DefaultVenues() {
		out = append(out, map[string]any{
			"name":      vc.Name,
			"kind":      vc.Kind,
			"api_url":   vc.APIURL,
			"contract":  vc.Contract,
			"function":  vc.Function,
			"gas_limit": vc.GasLimit,
			"enabled":   vc.Enabled,
		})
	}
	return out
}

// Load reads configuration from environment variables and an optional config
// file. An explicit path must exist; otherwise .mvx-swap.yaml is looked up in
// $HOME and the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".mvx-swap")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("MVX_SWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration and fills derived values
func (c *Config) Validate() error {
	network, err := tx.ParseNetwork(c.Network)
	if err != nil {
		return err
	}
	c.networkValue = network

	if c.GatewayURL == "" {
		c.GatewayURL = gateway.DefaultURLs[network]
	}

	if _, err := c.SlippagePercent(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Venues))
	for i, vc := range c.Venues {
		if vc.Name == "" {
			return fmt.Errorf("venue #%d has no name", i+1)
		}
		if seen[vc.Name] {
			return fmt.Errorf("venue %s is configured twice", vc.Name)
		}
		seen[vc.Name] = true

		switch vc.Kind {
		case KindXExchange, KindPulsar, KindMultiversX:
		default:
			return fmt.Errorf("venue %s: unknown kind %q", vc.Name, vc.Kind)
		}
		if vc.APIURL == "" {
			return fmt.Errorf("venue %s: api_url is required", vc.Name)
		}
		if vc.Contract != "" && !tx.IsValidAddress(vc.Contract) {
			return fmt.Errorf("venue %s: invalid contract address %q", vc.Name, vc.Contract)
		}
	}
	return nil
}

// NetworkID returns the parsed network selector
func (c *Config) NetworkID() tx.Network {
	if c.networkValue == "" {
		n, err := tx.ParseNetwork(c.Network)
		if err != nil {
			return tx.Mainnet
		}
		return n
	}
	return c.networkValue
}

// SlippagePercent returns the default slippage tolerance
func (c *Config) SlippagePercent() (decimal.Decimal, error) {
	if c.Slippage == "" {
		return types.DefaultSlippage, nil
	}
	s, err := decimal.NewFromString(c.Slippage)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid slippage %q: %w", c.Slippage, err)
	}
	if s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("slippage must be in [0, 100), got %s", s)
	}
	return s, nil
}

// TokenDecimals returns the decimals table keyed by token identifier. Viper
// lower-cases map keys, so identifiers are restored to their canonical case.
func (c *Config) TokenDecimals() map[types.TokenID]int32 {
	out := make(map[types.TokenID]int32, len(c.Tokens))
	for k, v := range c.Tokens {
		out[canonicalToken(k)] = v
	}
	return out
}

// EnabledVenues returns the venues to register, in configuration order
func (c *Config) EnabledVenues() []VenueConfig {
	var out []VenueConfig
	for _, vc := range c.Venues {
		if vc.Enabled {
			out = append(out, vc)
		}
	}
	return out
}

func canonicalToken(k string) types.TokenID {
	ticker, suffix, found := strings.Cut(k, "-")
	ticker = strings.ToUpper(ticker)
	if !found {
		return types.TokenID(ticker)
	}
	return types.TokenID(ticker + "-" + strings.ToLower(suffix))
}
