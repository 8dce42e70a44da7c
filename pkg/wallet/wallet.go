// Package wallet provides the agent's chain client: fee data queries, wrap and
// unwrap submission against a wrapped-asset contract, receipt tracking and balances.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NetworkType labels an EVM network
type NetworkType string

const (
	// PLUME represents Plume mainnet
	PLUME NetworkType = "PLUME"
	// BASE represents the Base network
	BASE NetworkType = "BASE"
)

// Backend is the subset of ethclient.Client the wallet depends on.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Client is the agent's connection to one EVM network and one wrapped-asset
// contract. It signs with a single key and throttles its own RPC traffic.
type Client struct {
	backend      Backend
	config       NetworkConfig
	keyManager   *KeyManager
	nonceManager *NonceManager
	limiter      *rate.Limiter
	contractABI  abi.ABI
	chainID      *big.Int
	log          *logrus.Logger
}

// NewClient dials the configured RPC endpoint and returns a ready client.
//
// Example:
//
//	cfg := DefaultNetworkConfig()
//	client, err := NewClient(ctx, logger, cfg, privateKey)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(ctx context.Context, log *logrus.Logger, config NetworkConfig, privateKey string) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "invalid network config", err, config.Type)
	}

	keyManager, err := NewKeyManager(privateKey)
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidPrivateKey, "failed to initialize key manager", err, config.Type)
	}

	backend, err := dialWithRetry(ctx, log, config)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to connect to network", err, config.Type)
	}

	client, err := newClient(ctx, log, config, keyManager, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return client, nil
}

// NewClientWithBackend builds a client over an existing backend, such as a
// simulated chain.
func NewClientWithBackend(ctx context.Context, log *logrus.Logger, config NetworkConfig, privateKey string, backend Backend) (*Client, error) {
	keyManager, err := NewKeyManager(privateKey)
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidPrivateKey, "failed to initialize key manager", err, config.Type)
	}
	return newClient(ctx, log, config, keyManager, backend)
}

func newClient(ctx context.Context, log *logrus.Logger, config NetworkConfig, keyManager *KeyManager, backend Backend) (*Client, error) {
	if log == nil {
		log = logrus.New()
	}

	parsedABI, err := parseWrappedTokenABI()
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, "failed to parse ABI", err, config.Type)
	}

	limit := rate.Inf
	if config.RPCRateLimit > 0 {
		limit = rate.Limit(config.RPCRateLimit)
	}

	client := &Client{
		backend:      backend,
		config:       config,
		keyManager:   keyManager,
		nonceManager: newNonceManager(),
		limiter:      rate.NewLimiter(limit, 1),
		contractABI:  parsedABI,
		log:          log,
	}

	if err := client.throttle(ctx); err != nil {
		return nil, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get chain ID", err, config.Type)
	}
	if config.ChainID != 0 && chainID.Cmp(big.NewInt(config.ChainID)) != 0 {
		return nil, NewWalletError(ErrCodeChainMismatch,
			fmt.Sprintf("expected chain %d, node reports %s", config.ChainID, chainID), nil, config.Type)
	}
	client.chainID = chainID

	log.WithFields(logrus.Fields{
		"network":  config.Type,
		"chain_id": chainID.String(),
		"address":  keyManager.GetAddress().Hex(),
		"contract": config.ContractAddress.Hex(),
	}).Debug("Wallet client ready")

	return client, nil
}

// Address returns the agent's account address.
func (c *Client) Address() common.Address {
	return c.keyManager.GetAddress()
}

// ContractAddress returns the wrapped-asset contract address.
func (c *Client) ContractAddress() common.Address {
	return c.config.ContractAddress
}

// ChainID returns the chain ID resolved at connection time.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.throttle(ctx); err != nil {
		return 0, err
	}
	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, NewWalletError(ErrCodeRPCError, "failed to get block number", err, c.config.Type)
	}
	return n, nil
}

// NativeBalance returns the agent account's native balance in wei.
func (c *Client) NativeBalance(ctx context.Context) (*big.Int, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	balance, err := c.backend.BalanceAt(ctx, c.Address(), nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get balance", err, c.config.Type)
	}

	c.log.WithFields(logrus.Fields{
		"network": c.config.Type,
		"address": c.Address().Hex(),
		"balance": balance.String(),
	}).Debug("Retrieved balance")

	return balance, nil
}

// throttle blocks until the rate limiter admits one more RPC request.
func (c *Client) throttle(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return NewWalletError(ErrCodeTimeout, "rate limiter wait failed", err, c.config.Type)
	}
	return nil
}

// dialWithRetry attempts to connect to the network, retrying failed attempts
// according to the network configuration.
func dialWithRetry(ctx context.Context, log *logrus.Logger, config NetworkConfig) (*ethclient.Client, error) {
	var client *ethclient.Client
	var err error

	for i := 0; i <= config.MaxRetries; i++ {
		client, err = ethclient.DialContext(ctx, config.RPCURL)
		if err == nil {
			return client, nil
		}

		if i < config.MaxRetries {
			log.WithFields(logrus.Fields{
				"network": config.Type,
				"attempt": i + 1,
				"error":   err,
			}).Debug("Retrying network connection")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", config.MaxRetries+1, err)
}

// Close closes the network connection.
func (c *Client) Close() {
	c.backend.Close()
	c.log.WithField("network", c.config.Type).Debug("Closed network connection")
}
