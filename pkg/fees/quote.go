// Package fees produces EIP-1559 fee quotes for outgoing transactions. Quotes come
// from an ordered chain of estimation strategies and are cached for a fixed TTL.
package fees

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Tier identifies which estimation strategy produced a quote.
type Tier string

const (
	// TierNetwork quotes are derived from the provider's reported fee data
	TierNetwork Tier = "network"
	// TierLatestBlock quotes are derived from the latest block's base fee
	TierLatestBlock Tier = "latest_block"
	// TierStatic quotes come from configuration
	TierStatic Tier = "static"
)

var (
	// ErrNoFeeData is returned when the provider reports neither EIP-1559 fields nor a gas price
	ErrNoFeeData = errors.New("unable to get gas price from network")
	// ErrNoBaseFee is returned when the latest block carries no usable base fee
	ErrNoBaseFee = errors.New("latest block has no base fee")
)

// Quote is a priority fee / max fee pair, both in wei per gas unit.
type Quote struct {
	PriorityFee *big.Int
	MaxFee      *big.Int
	ObservedAt  time.Time
	Tier        Tier
}

// PriorityFeeGwei renders the priority fee in gwei for logging.
func (q Quote) PriorityFeeGwei() string {
	return WeiToGwei(q.PriorityFee).String()
}

// MaxFeeGwei renders the max fee in gwei for logging.
func (q Quote) MaxFeeGwei() string {
	return WeiToGwei(q.MaxFee).String()
}

// clone returns a copy that shares no big.Int with q.
func (q Quote) clone() Quote {
	out := q
	if q.PriorityFee != nil {
		out.PriorityFee = new(big.Int).Set(q.PriorityFee)
	}
	if q.MaxFee != nil {
		out.MaxFee = new(big.Int).Set(q.MaxFee)
	}
	return out
}

// Parameters is the raw fee data reported by a chain provider. Any field may be nil
// when the node does not support it.
type Parameters struct {
	PriorityFee *big.Int
	MaxFee      *big.Int
	GasPrice    *big.Int
	LastBaseFee *big.Int
}

// Provider is the subset of a chain client the oracle queries.
type Provider interface {
	// FeeParameters returns the network's current fee data
	FeeParameters(ctx context.Context) (Parameters, error)
	// LatestBaseFee returns the base fee of the latest block, nil if the chain has none
	LatestBaseFee(ctx context.Context) (*big.Int, error)
}

var gweiExp = int32(9)

// GweiToWei converts a gwei amount to wei, truncating anything below one wei.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(gweiExp).Truncate(0).BigInt()
}

// WeiToGwei converts a wei amount to gwei. A nil amount is zero.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -gweiExp)
}

// WeiToEther converts a wei amount to whole units of an 18-decimal asset.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}
