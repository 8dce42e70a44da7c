package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type nonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out nonces for the agent's account. It starts from the node's
// pending nonce and skips nonces still held by in-flight transactions, so an
// overlapping submission never reuses a nonce.
type NonceManager struct {
	pending map[uint64]time.Time // nonces in flight and when they were issued
	mu      sync.Mutex
}

func newNonceManager() *NonceManager {
	return &NonceManager{
		pending: make(map[uint64]time.Time),
	}
}

// GetNonce reserves the next available nonce for account.
func (nm *NonceManager) GetNonce(ctx context.Context, src nonceSource, account common.Address) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce, err := src.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, err
	}

	for {
		if _, isPending := nm.pending[nonce]; !isPending {
			nm.pending[nonce] = time.Now()
			return nonce, nil
		}
		nonce++
	}
}

// ReleaseNonce frees a reserved nonce once its transaction is mined or abandoned.
func (nm *NonceManager) ReleaseNonce(nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	delete(nm.pending, nonce)
}

// Pending returns how many nonces are currently reserved.
func (nm *NonceManager) Pending() int {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	return len(nm.pending)
}
