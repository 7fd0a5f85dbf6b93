// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Liquidity LiquidityConfig `mapstructure:"liquidity"`
	Snapshots SnapshotConfig  `mapstructure:"snapshots"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds Ethereum node and signing configuration.
type EthereumConfig struct {
	HTTPURL         string        `mapstructure:"http_url"`
	ChainID         uint64        `mapstructure:"chain_id"`
	PrivateKey      string        `mapstructure:"private_key"` // hex, env only
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
	MaxGasPriceGwei float64       `mapstructure:"max_gas_price_gwei"`
	RPCRatePerSec   float64       `mapstructure:"rpc_rate_per_sec"`
}

// UniswapConfig holds Uniswap V2 contract addresses.
type UniswapConfig struct {
	RouterAddress  string `mapstructure:"router_address"`
	FactoryAddress string `mapstructure:"factory_address"`
	WETHAddress    string `mapstructure:"weth_address"`
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapConfig) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// WETHAddressHex returns the wrapped-native address as common.Address.
func (c *UniswapConfig) WETHAddressHex() common.Address {
	return common.HexToAddress(c.WETHAddress)
}

// LiquidityConfig holds per-operation liquidity settings.
type LiquidityConfig struct {
	TokenAddress   string        `mapstructure:"token_address"`
	TokenAddresses []string      `mapstructure:"token_addresses"` // batch mode
	TokenAmount    string        `mapstructure:"token_amount"`    // human units
	QuotePerToken  string        `mapstructure:"quote_per_token"` // WETH per 1 token
	QuoteCap       string        `mapstructure:"quote_cap"`       // max WETH spend
	AmountTokenMin string        `mapstructure:"amount_token_min"`
	AmountETHMin   string        `mapstructure:"amount_eth_min"`
	DeadlineOffset time.Duration `mapstructure:"deadline_offset"`
	UnwrapWETH     bool          `mapstructure:"unwrap_weth"`
	RemovalTxHash  string        `mapstructure:"removal_tx_hash"`
}

// TokenAddressHex returns the token address as common.Address.
func (c *LiquidityConfig) TokenAddressHex() common.Address {
	return common.HexToAddress(c.TokenAddress)
}

// TokenAddressesHex returns the batch token addresses in caller order.
func (c *LiquidityConfig) TokenAddressesHex() []common.Address {
	out := make([]common.Address, len(c.TokenAddresses))
	for i, s := range c.TokenAddresses {
		out[i] = common.HexToAddress(s)
	}
	return out
}

// TokenAmountDecimal returns the token amount as decimal.Decimal.
func (c *LiquidityConfig) TokenAmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.TokenAmount)
}

// QuotePerTokenDecimal returns the exchange ratio as decimal.Decimal.
func (c *LiquidityConfig) QuotePerTokenDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.QuotePerToken)
}

// QuoteCapDecimal returns the quote spend ceiling as decimal.Decimal.
func (c *LiquidityConfig) QuoteCapDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.QuoteCap)
}

// SnapshotConfig holds balance-snapshot persistence settings.
type SnapshotConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "wal"
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("LIQ")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LIQ_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LIQ_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LIQ_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "LIQ_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "LIQ_ETH_CHAIN_ID", "ETH_CHAIN_ID")
	v.BindEnv("ethereum.private_key", "LIQ_PRIVATE_KEY", "PRIVATE_KEY")

	// Uniswap (legacy env names kept for .env compatibility)
	v.BindEnv("uniswap.router_address", "LIQ_UNISWAP_ROUTER", "UNISWAP_ROUTER_ADDRESS")
	v.BindEnv("uniswap.factory_address", "LIQ_UNISWAP_FACTORY", "UNISWAP_FACTORY_ADDRESS")
	v.BindEnv("uniswap.weth_address", "LIQ_WETH_ADDRESS", "WETH_ADDRESS")

	// Liquidity
	v.BindEnv("liquidity.token_address", "LIQ_TOKEN_ADDRESS", "TOKEN_ADDRESS")
	v.BindEnv("liquidity.token_amount", "LIQ_TOKEN_AMOUNT", "LIQUIDITY_TOKENS")
	v.BindEnv("liquidity.quote_per_token", "LIQ_QUOTE_PER_TOKEN", "WETH_PER_TOKEN")
	v.BindEnv("liquidity.quote_cap", "LIQ_QUOTE_CAP", "LIQUIDITY_ETH_MAX")
	v.BindEnv("liquidity.removal_tx_hash", "LIQ_REMOVAL_TX_HASH", "REMOVAL_TX_HASH")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LIQ_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LIQ_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LIQ_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "liquidity-bot")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.poll_interval", "3s")
	v.SetDefault("ethereum.confirm_timeout", "120s")
	v.SetDefault("ethereum.max_gas_price_gwei", 500)
	v.SetDefault("ethereum.rpc_rate_per_sec", 10)

	// Liquidity defaults
	v.SetDefault("liquidity.quote_per_token", "0.0001")
	v.SetDefault("liquidity.quote_cap", "1.0")
	v.SetDefault("liquidity.amount_token_min", "0")
	v.SetDefault("liquidity.amount_eth_min", "0")
	v.SetDefault("liquidity.deadline_offset", "10m")
	v.SetDefault("liquidity.unwrap_weth", true)

	// Snapshot defaults
	v.SetDefault("snapshots.backend", "file")
	v.SetDefault("snapshots.dir", ".")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "liquidity-bot")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
// Address and ratio checks fail fast, before anything touches the chain.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if !common.IsHexAddress(c.Uniswap.RouterAddress) {
		return fmt.Errorf("invalid uniswap.router_address: %s", c.Uniswap.RouterAddress)
	}
	if !common.IsHexAddress(c.Uniswap.FactoryAddress) {
		return fmt.Errorf("invalid uniswap.factory_address: %s", c.Uniswap.FactoryAddress)
	}
	if !common.IsHexAddress(c.Uniswap.WETHAddress) {
		return fmt.Errorf("invalid uniswap.weth_address: %s", c.Uniswap.WETHAddress)
	}
	if c.Liquidity.TokenAddress != "" && !common.IsHexAddress(c.Liquidity.TokenAddress) {
		return fmt.Errorf("invalid liquidity.token_address: %s", c.Liquidity.TokenAddress)
	}
	for _, addr := range c.Liquidity.TokenAddresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid liquidity.token_addresses entry: %s", addr)
		}
	}
	if c.Liquidity.QuoteCap != "" {
		cap, err := c.Liquidity.QuoteCapDecimal()
		if err != nil {
			return fmt.Errorf("invalid liquidity.quote_cap: %w", err)
		}
		if !cap.IsPositive() {
			return fmt.Errorf("liquidity.quote_cap must be positive, got %s", cap)
		}
	}
	if c.Ethereum.PollInterval <= 0 {
		return fmt.Errorf("ethereum.poll_interval must be positive")
	}
	if c.Ethereum.ConfirmTimeout <= 0 {
		return fmt.Errorf("ethereum.confirm_timeout must be positive")
	}
	return nil
}
