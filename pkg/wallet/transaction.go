package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// TransactionStatus represents the status of a transaction on the blockchain.
type TransactionStatus struct {
	// Hash is the unique transaction identifier
	Hash common.Hash

	// Status indicates transaction success (1) or failure (0)
	Status uint64

	// BlockNumber is the block height where transaction was mined
	BlockNumber *big.Int

	// GasUsed is the actual amount of gas consumed
	GasUsed uint64

	// EffectiveGasPrice is the actual gas price paid
	EffectiveGasPrice *big.Int

	// State tracks the current transaction state
	State TransactionState

	// Timestamp when the status was last updated
	Timestamp time.Time
}

// TransactionState represents the possible states of a transaction
type TransactionState int

const (
	// TxStatePending indicates transaction is waiting to be mined
	TxStatePending TransactionState = iota

	// TxStateConfirmed indicates transaction was successfully mined
	TxStateConfirmed

	// TxStateFailed indicates transaction was mined but reverted
	TxStateFailed
)

func (s TransactionState) String() string {
	switch s {
	case TxStatePending:
		return "pending"
	case TxStateConfirmed:
		return "confirmed"
	case TxStateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

const (
	// defaultReceiptTimeout is how long to wait for a receipt
	defaultReceiptTimeout = 5 * time.Minute

	// defaultPollInterval is how often to check for receipt
	defaultPollInterval = 5 * time.Second
)

// WaitForReceipt polls until the transaction is mined, the configured receipt
// timeout elapses, or ctx is cancelled. A mined transaction with a failed status
// is returned together with an ErrCodeTransactionReverted error. When the wait gives
// up, the returned status is TxStatePending so callers still learn the hash.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*TransactionStatus, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":  "WaitForReceipt",
		"tx_hash": hash.Hex(),
	})

	pollInterval := c.config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	receiptTimeout := c.config.ReceiptTimeout
	if receiptTimeout <= 0 {
		receiptTimeout = defaultReceiptTimeout
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	timeout := time.NewTimer(receiptTimeout)
	defer timeout.Stop()

	// The transaction is already broadcast, so every early return still carries its hash
	pending := func() *TransactionStatus {
		return &TransactionStatus{Hash: hash, State: TxStatePending, Timestamp: time.Now()}
	}

	for {
		select {
		case <-ctx.Done():
			return pending(), NewWalletError(ErrCodeTimeout, "context cancelled while waiting for receipt", ctx.Err(), c.config.Type)
		case <-timeout.C:
			return pending(), NewWalletError(ErrCodeTimeout,
				fmt.Sprintf("no receipt for %s after %s", hash.Hex(), receiptTimeout), nil, c.config.Type)
		case <-ticker.C:
			if err := c.throttle(ctx); err != nil {
				return pending(), err
			}
			receipt, err := c.backend.TransactionReceipt(ctx, hash)
			if err != nil {
				if !errors.Is(err, ethereum.NotFound) {
					log.WithError(err).Debug("Receipt lookup failed, retrying")
				}
				continue
			}

			status := &TransactionStatus{
				Hash:              hash,
				Status:            receipt.Status,
				BlockNumber:       receipt.BlockNumber,
				GasUsed:           receipt.GasUsed,
				EffectiveGasPrice: receipt.EffectiveGasPrice,
				State:             TxStateConfirmed,
				Timestamp:         time.Now(),
			}

			if receipt.Status == types.ReceiptStatusFailed {
				status.State = TxStateFailed
				return status, NewWalletError(ErrCodeTransactionReverted,
					fmt.Sprintf("transaction %s reverted in block %s", hash.Hex(), receipt.BlockNumber), nil, c.config.Type)
			}

			return status, nil
		}
	}
}
