package fees

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Strategy is one tier of fee estimation. Estimate either returns a usable quote or
// an error, in which case the oracle moves on to the next strategy.
type Strategy interface {
	Name() Tier
	Estimate(ctx context.Context) (Quote, error)
}

var (
	hundred         = big.NewInt(100)
	baseFeeHeadroom = big.NewInt(150) // max fee floor, percent of base fee
	blockTipShare   = big.NewInt(20)  // latest-block priority fee, percent of base fee
)

// percentOf returns v*pct/100 using integer division.
func percentOf(v *big.Int, pct *big.Int) *big.Int {
	out := new(big.Int).Mul(v, pct)
	return out.Quo(out, hundred)
}

// NetworkStrategy derives a quote from the provider's reported fee data, applying the
// base fee floor, the safety multiplier and the configured bounds.
type NetworkStrategy struct {
	provider   Provider
	multiplier *big.Int // multiplier scaled by 100, truncated
	minBound   *big.Int
	maxBound   *big.Int
}

// NewNetworkStrategy creates the primary strategy. The multiplier is truncated at two
// decimal places, so 1.239 scales fees by 123/100.
func NewNetworkStrategy(provider Provider, multiplier decimal.Decimal, minBound, maxBound *big.Int) *NetworkStrategy {
	return &NetworkStrategy{
		provider:   provider,
		multiplier: multiplier.Mul(decimal.NewFromInt(100)).Floor().BigInt(),
		minBound:   minBound,
		maxBound:   maxBound,
	}
}

// Name implements Strategy
func (s *NetworkStrategy) Name() Tier {
	return TierNetwork
}

// Estimate implements Strategy
func (s *NetworkStrategy) Estimate(ctx context.Context) (Quote, error) {
	params, err := s.provider.FeeParameters(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get fee data: %w", err)
	}

	// A zero value is treated like a missing one
	var priorityFee, maxFee *big.Int
	switch {
	case positive(params.PriorityFee) && positive(params.MaxFee):
		priorityFee = new(big.Int).Set(params.PriorityFee)
		maxFee = new(big.Int).Set(params.MaxFee)
	case positive(params.GasPrice):
		// Legacy network: one price for both fields
		priorityFee = new(big.Int).Set(params.GasPrice)
		maxFee = new(big.Int).Set(params.GasPrice)
	default:
		return Quote{}, ErrNoFeeData
	}

	if params.LastBaseFee != nil {
		floor := percentOf(params.LastBaseFee, baseFeeHeadroom)
		if maxFee.Cmp(floor) < 0 {
			maxFee = floor
		}
	}

	priorityFee = percentOf(priorityFee, s.multiplier)
	maxFee = percentOf(maxFee, s.multiplier)

	priorityFee = clamp(priorityFee, s.minBound, s.maxBound)
	maxFee = clamp(maxFee, s.minBound, s.maxBound)

	// A tip above the fee cap is rejected by nodes
	if priorityFee.Cmp(maxFee) > 0 {
		priorityFee = new(big.Int).Set(maxFee)
	}

	return Quote{PriorityFee: priorityFee, MaxFee: maxFee, Tier: TierNetwork}, nil
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

func clamp(v, lo, hi *big.Int) *big.Int {
	if lo != nil && v.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if hi != nil && v.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return v
}

// LatestBlockStrategy prices from the latest block's base fee: 20% of it as the tip
// and 150% of it as the cap. No multiplier or bounds are applied.
type LatestBlockStrategy struct {
	provider Provider
}

// NewLatestBlockStrategy creates the secondary strategy.
func NewLatestBlockStrategy(provider Provider) *LatestBlockStrategy {
	return &LatestBlockStrategy{provider: provider}
}

// Name implements Strategy
func (s *LatestBlockStrategy) Name() Tier {
	return TierLatestBlock
}

// Estimate implements Strategy
func (s *LatestBlockStrategy) Estimate(ctx context.Context) (Quote, error) {
	baseFee, err := s.provider.LatestBaseFee(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get latest block: %w", err)
	}
	if baseFee == nil || baseFee.Sign() <= 0 {
		return Quote{}, ErrNoBaseFee
	}

	return Quote{
		PriorityFee: percentOf(baseFee, blockTipShare),
		MaxFee:      percentOf(baseFee, baseFeeHeadroom),
		Tier:        TierLatestBlock,
	}, nil
}

// StaticStrategy returns fixed, configured fees. It never fails.
type StaticStrategy struct {
	priorityFee *big.Int
	maxFee      *big.Int
}

// NewStaticStrategy creates the last-resort strategy.
func NewStaticStrategy(priorityFee, maxFee *big.Int) *StaticStrategy {
	return &StaticStrategy{priorityFee: priorityFee, maxFee: maxFee}
}

// Name implements Strategy
func (s *StaticStrategy) Name() Tier {
	return TierStatic
}

// Estimate implements Strategy
func (s *StaticStrategy) Estimate(context.Context) (Quote, error) {
	return Quote{
		PriorityFee: new(big.Int).Set(s.priorityFee),
		MaxFee:      new(big.Int).Set(s.maxFee),
		Tier:        TierStatic,
	}, nil
}
