package wallet

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NetworkConfig holds the connection and transaction settings for the single
// network the agent operates on.
type NetworkConfig struct {
	// Type labels the network in logs and errors (e.g. PLUME)
	Type NetworkType

	// RPCURL is the HTTP(S) or WS endpoint for connecting to the network
	RPCURL string

	// ChainID is the expected chain ID. Zero means query it from the node.
	ChainID int64

	// ContractAddress is the wrapped-asset contract (deposit/withdraw/balanceOf)
	ContractAddress common.Address

	// GasLimit is the fixed gas limit for wrap and unwrap transactions
	GasLimit uint64

	// MaxRetries specifies how many times to retry the initial connection
	MaxRetries int

	// RetryDelay is the duration to wait between connection attempts
	RetryDelay time.Duration

	// ReceiptTimeout bounds how long a submitted transaction is awaited
	ReceiptTimeout time.Duration

	// PollInterval is how often the receipt is polled for
	PollInterval time.Duration

	// RPCRateLimit caps outgoing RPC requests per second. Zero disables throttling.
	RPCRateLimit float64
}

// DefaultNetworkConfig returns settings for Plume mainnet and its wrapped PLUME
// contract. The RPC URL may be overridden from configuration.
//
// The defaults include:
//   - 300k gas for wrap/unwrap calls
//   - 3 connection attempts with a 1 second delay
//   - a 5 minute bound on receipt waits, polled every 5 seconds
//   - 10 RPC requests per second
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Type:            PLUME,
		RPCURL:          "https://rpc.plume.org",
		ContractAddress: common.HexToAddress("0xea237441c92cae6fc17caaf9a7acb3f953be4bd1"),
		GasLimit:        300000,
		MaxRetries:      3,
		RetryDelay:      time.Second,
		ReceiptTimeout:  defaultReceiptTimeout,
		PollInterval:    defaultPollInterval,
		RPCRateLimit:    10,
	}
}

// Validate checks that the config can be used to build a Client.
func (c NetworkConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL is required")
	}
	if c.ContractAddress == (common.Address{}) {
		return fmt.Errorf("contract address is required")
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("gas limit must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("receipt timeout must be positive")
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("RPC rate limit cannot be negative")
	}
	return nil
}
