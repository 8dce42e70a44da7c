// Package picker chooses what the agent does each cycle: wrap or unwrap, how much,
// and how long to wait before the next cycle.
package picker

import (
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of an operation
type Kind int

const (
	// Wrap converts the native asset into the wrapped token
	Wrap Kind = iota
	// Unwrap converts the wrapped token back into the native asset
	Unwrap
)

// String returns "wrap" or "unwrap"
func (k Kind) String() string {
	if k == Unwrap {
		return "unwrap"
	}
	return "wrap"
}

// assetDecimals is the precision of the native asset and its wrapped token
const assetDecimals = 18

// Request is one cycle's operation. It is immutable once built.
type Request struct {
	Kind   Kind
	Amount decimal.Decimal
}

// Wei returns the amount in base units, truncating below one wei.
func (r Request) Wei() *big.Int {
	return r.Amount.Shift(assetDecimals).Truncate(0).BigInt()
}

// Picker draws operations from a uniform random source. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Picker seeded from the current time.
func New() *Picker {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource creates a Picker over src, for reproducible draws.
func NewWithSource(src rand.Source) *Picker {
	return &Picker{rng: rand.New(src)}
}

func (p *Picker) float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

// Kind returns Wrap or Unwrap with equal probability.
func (p *Picker) Kind() Kind {
	if p.float() < 0.5 {
		return Wrap
	}
	return Unwrap
}

// Amount returns a value uniformly distributed in [min, max). Callers must ensure
// min <= max.
func (p *Picker) Amount(min, max float64) float64 {
	v := p.float()*(max-min) + min
	// Rounding can land exactly on max for tiny ranges
	if v >= max && max > min {
		return min
	}
	return v
}

// IntervalMillis returns a delay uniformly distributed between minMinutes and
// maxMinutes, in milliseconds.
func (p *Picker) IntervalMillis(minMinutes, maxMinutes float64) int64 {
	return int64(p.Amount(minMinutes, maxMinutes) * float64(time.Minute/time.Millisecond))
}

// Interval is IntervalMillis as a time.Duration.
func (p *Picker) Interval(minMinutes, maxMinutes float64) time.Duration {
	return time.Duration(p.IntervalMillis(minMinutes, maxMinutes)) * time.Millisecond
}

// Request draws a kind and an amount in [min, max).
func (p *Picker) Request(min, max float64) Request {
	return Request{
		Kind:   p.Kind(),
		Amount: decimal.NewFromFloat(p.Amount(min, max)),
	}
}
