package fees

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/lisanmuaddib/wrap-agent/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a quote is reused before the oracle refreshes it
const DefaultTTL = 5 * time.Minute

// Config holds the oracle's pricing parameters.
type Config struct {
	// Multiplier scales network-derived fees, e.g. 1.1 adds 10%
	Multiplier decimal.Decimal

	// MinBound and MaxBound clamp network-derived fees, in wei
	MinBound *big.Int
	MaxBound *big.Int

	// FallbackPriorityFee and FallbackMaxFee are used when every network query fails, in wei
	FallbackPriorityFee *big.Int
	FallbackMaxFee      *big.Int

	// TTL is how long a quote is cached
	TTL time.Duration
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if !c.Multiplier.IsPositive() {
		return fmt.Errorf("fee multiplier must be positive")
	}
	if c.MinBound == nil || c.MaxBound == nil {
		return fmt.Errorf("fee bounds are required")
	}
	if c.MinBound.Cmp(c.MaxBound) > 0 {
		return fmt.Errorf("min fee bound %s exceeds max fee bound %s", c.MinBound, c.MaxBound)
	}
	if c.FallbackPriorityFee == nil || c.FallbackMaxFee == nil {
		return fmt.Errorf("fallback fees are required")
	}
	if c.FallbackPriorityFee.Cmp(c.FallbackMaxFee) > 0 {
		return fmt.Errorf("fallback priority fee %s exceeds fallback max fee %s", c.FallbackPriorityFee, c.FallbackMaxFee)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("fee cache TTL must be positive")
	}
	return nil
}

// Oracle returns fee quotes, reusing a cached quote until its TTL elapses and
// otherwise walking its strategies in order until one succeeds.
type Oracle struct {
	strategies []Strategy
	ttl        time.Duration
	logger     *logrus.Logger
	now        func() time.Time

	mu         sync.Mutex
	cached     *Quote
	lastUpdate time.Time
}

// Option customizes an Oracle
type Option func(*Oracle)

// WithClock overrides the oracle's time source
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		o.now = now
	}
}

// NewOracle builds the standard three-tier oracle: network fee data, then the latest
// block's base fee, then the configured fallback.
func NewOracle(provider Provider, cfg Config, logger *logrus.Logger, opts ...Option) (*Oracle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee config: %w", err)
	}

	strategies := []Strategy{
		NewNetworkStrategy(provider, cfg.Multiplier, cfg.MinBound, cfg.MaxBound),
		NewLatestBlockStrategy(provider),
		NewStaticStrategy(cfg.FallbackPriorityFee, cfg.FallbackMaxFee),
	}
	return NewOracleWithStrategies(strategies, cfg.TTL, logger, opts...), nil
}

// NewOracleWithStrategies builds an oracle over an explicit strategy list.
func NewOracleWithStrategies(strategies []Strategy, ttl time.Duration, logger *logrus.Logger, opts ...Option) *Oracle {
	if logger == nil {
		logger = logrus.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	o := &Oracle{
		strategies: strategies,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Quote returns a fee quote. A cached quote younger than the TTL is returned without
// touching the network. An error is only returned when every strategy failed. The
// lock is not held while strategies run, so Last stays responsive during a refresh.
func (o *Oracle) Quote(ctx context.Context) (Quote, error) {
	o.mu.Lock()
	now := o.now()
	if o.cached != nil && now.Sub(o.lastUpdate) < o.ttl {
		cached := o.cached.clone()
		o.mu.Unlock()
		return cached, nil
	}
	o.mu.Unlock()

	log := o.logger.WithField("method", "Quote")
	log.Debug("Fetching current gas price from network")

	var errs []error
	for _, strategy := range o.strategies {
		quote, err := strategy.Estimate(ctx)
		if err != nil {
			log.WithError(err).WithField("tier", strategy.Name()).Warn("Fee estimation tier failed")
			errs = append(errs, fmt.Errorf("%s: %w", strategy.Name(), err))
			continue
		}

		quote.ObservedAt = now
		quote.Tier = strategy.Name()

		o.mu.Lock()
		stored := quote.clone()
		o.cached = &stored
		o.lastUpdate = now
		o.mu.Unlock()

		metrics.FeeQuotes.WithLabelValues(string(quote.Tier)).Inc()
		log.WithFields(logrus.Fields{
			"tier":              quote.Tier,
			"priority_fee_gwei": quote.PriorityFeeGwei(),
			"max_fee_gwei":      quote.MaxFeeGwei(),
		}).Info("Gas price updated")

		return quote.clone(), nil
	}

	return Quote{}, fmt.Errorf("all fee estimation tiers failed: %w", errors.Join(errs...))
}

// Last returns the cached quote and when it was stored, or nil if none exists yet.
func (o *Oracle) Last() (*Quote, time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cached == nil {
		return nil, time.Time{}
	}
	q := o.cached.clone()
	return &q, o.lastUpdate
}
