// Package agentconfig loads the agent's settings from the environment (and an
// optional .env file) and wires them into the agent's actions.
package agentconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/lisanmuaddib/wrap-agent/pkg/actions"
	"github.com/lisanmuaddib/wrap-agent/pkg/db"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Values shipped in the example .env that must be replaced before running
const (
	placeholderPrivateKey = "your_private_key_here"
	placeholderRPCURL     = "https://plume-rpc-url-here"
)

// Config is everything the agent needs to run
type Config struct {
	PrivateKey string

	Network   wallet.NetworkConfig
	Fees      fees.Config
	Scheduler actions.WrapSchedulerOptions
	Database  db.Config

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// LookupFunc reads one setting; os.LookupEnv is the usual source
type LookupFunc func(key string) (string, bool)

// Load reads .env (or the given files) into the process environment, then builds
// and validates a Config from it. Missing .env files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg, err := FromLookup(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromLookup builds a Config from lookup, applying defaults for unset keys. It only
// fails on values that cannot be parsed; call Validate for range checks.
func FromLookup(lookup LookupFunc) (*Config, error) {
	p := parser{lookup: lookup}

	network := wallet.DefaultNetworkConfig()
	network.Type = wallet.NetworkType(strings.ToUpper(p.str("CHAIN_NAME", string(network.Type))))
	network.RPCURL = p.str("RPC_URL", network.RPCURL)
	network.ChainID = p.int64("CHAIN_ID", 0)
	contract := p.str("WRAPPER_CONTRACT", network.ContractAddress.Hex())
	network.GasLimit = uint64(p.int64("GAS_LIMIT", int64(network.GasLimit)))
	network.MaxRetries = int(p.int64("RPC_MAX_RETRIES", int64(network.MaxRetries)))
	network.RetryDelay = p.duration("RPC_RETRY_DELAY", network.RetryDelay)
	network.ReceiptTimeout = p.duration("TX_CONFIRM_TIMEOUT", network.ReceiptTimeout)
	network.RPCRateLimit = p.float("RPC_RATE_LIMIT", network.RPCRateLimit)

	feeConfig := fees.Config{
		Multiplier:          p.decimal("GAS_MULTIPLIER", "1.1"),
		MinBound:            fees.GweiToWei(p.decimal("MIN_GAS_PRICE_GWEI", "1")),
		MaxBound:            fees.GweiToWei(p.decimal("MAX_GAS_PRICE_GWEI", "50")),
		FallbackPriorityFee: fees.GweiToWei(p.decimal("MAX_PRIORITY_FEE_GWEI", "2")),
		FallbackMaxFee:      fees.GweiToWei(p.decimal("MAX_FEE_GWEI", "50")),
		TTL:                 p.duration("FEE_CACHE_TTL", fees.DefaultTTL),
	}

	scheduler := actions.WrapSchedulerOptions{
		MinAmount:          p.float("MIN_AMOUNT", 1),
		MaxAmount:          p.float("MAX_AMOUNT", 5),
		MinIntervalMinutes: p.float("MIN_INTERVAL_MINUTES", 1),
		MaxIntervalMinutes: p.float("MAX_INTERVAL_MINUTES", 2),
		RetryBackoff:       p.duration("RETRY_BACKOFF", actions.DefaultRetryBackoff),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	if err := wallet.ValidateAddress(network.Type, contract); err != nil {
		return nil, fmt.Errorf("WRAPPER_CONTRACT: %w", err)
	}
	network.ContractAddress = common.HexToAddress(contract)
	scheduler.ContractAddress = network.ContractAddress.Hex()

	database := db.Config{
		Host:          p.str("DB_HOST", ""),
		Port:          p.str("DB_PORT", "5432"),
		User:          p.str("DB_USER", ""),
		Password:      p.str("DB_PASSWORD", ""),
		Name:          p.str("DB_NAME", ""),
		SSLMode:       p.str("DB_SSLMODE", "disable"),
		MigrationsDir: p.str("MIGRATIONS_DIR", ""),
	}

	return &Config{
		PrivateKey:  strings.TrimSpace(p.str("PRIVATE_KEY", "")),
		Network:     network,
		Fees:        feeConfig,
		Scheduler:   scheduler,
		Database:    database,
		MetricsAddr: p.str("METRICS_ADDR", ""),
		LogLevel:    p.str("LOG_LEVEL", "info"),
		LogFormat:   p.str("LOG_FORMAT", "colored"),
	}, nil
}

// Validate rejects placeholder credentials and inconsistent ranges.
func (c *Config) Validate() error {
	if c.PrivateKey == "" || c.PrivateKey == placeholderPrivateKey {
		return fmt.Errorf("PRIVATE_KEY not configured")
	}
	if _, err := wallet.NewKeyManager(c.PrivateKey); err != nil {
		return fmt.Errorf("PRIVATE_KEY: %w", err)
	}
	if c.Network.RPCURL == "" || c.Network.RPCURL == placeholderRPCURL {
		return fmt.Errorf("RPC_URL not configured")
	}
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("invalid network config: %w", err)
	}

	s := c.Scheduler
	if s.MinAmount <= 0 || s.MaxAmount <= 0 {
		return fmt.Errorf("MIN_AMOUNT and MAX_AMOUNT must be positive")
	}
	if s.MinAmount > s.MaxAmount {
		return fmt.Errorf("MIN_AMOUNT %v exceeds MAX_AMOUNT %v", s.MinAmount, s.MaxAmount)
	}
	if s.MinIntervalMinutes < 0 || s.MinIntervalMinutes > s.MaxIntervalMinutes {
		return fmt.Errorf("interval range [%v, %v] minutes is invalid", s.MinIntervalMinutes, s.MaxIntervalMinutes)
	}
	if s.RetryBackoff <= 0 {
		return fmt.Errorf("RETRY_BACKOFF must be positive")
	}

	if err := c.Fees.Validate(); err != nil {
		return fmt.Errorf("invalid fee config: %w", err)
	}

	if c.Database.Enabled() {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Fields summarizes the configuration for logging. Secrets are left out.
func (c *Config) Fields() logrus.Fields {
	return logrus.Fields{
		"network":               c.Network.Type,
		"rpc_url":               c.Network.RPCURL,
		"contract":              c.Network.ContractAddress.Hex(),
		"amount_range":          fmt.Sprintf("%v-%v", c.Scheduler.MinAmount, c.Scheduler.MaxAmount),
		"interval_range_min":    fmt.Sprintf("%v-%v", c.Scheduler.MinIntervalMinutes, c.Scheduler.MaxIntervalMinutes),
		"gas_limit":             c.Network.GasLimit,
		"gas_multiplier":        c.Fees.Multiplier.String(),
		"gas_price_bounds_gwei": fmt.Sprintf("%s-%s", fees.WeiToGwei(c.Fees.MinBound), fees.WeiToGwei(c.Fees.MaxBound)),
		"fee_cache_ttl":         c.Fees.TTL.String(),
		"retry_backoff":         c.Scheduler.RetryBackoff.String(),
		"confirm_timeout":       c.Network.ReceiptTimeout.String(),
		"journal":               c.Database.Enabled(),
	}
}

// parser reads typed values, collecting parse errors instead of stopping at the first
type parser struct {
	lookup LookupFunc
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) raw(key string) (string, bool) {
	v, ok := p.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) int64(key string, def int64) int64 {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v, ok := p.raw(key)
	if !ok {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return decimal.RequireFromString(def)
	}
	return d
}

// duration accepts Go duration strings ("90s", "5m") or a bare number of seconds
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.raw(key)
	if !ok {
		return def
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
