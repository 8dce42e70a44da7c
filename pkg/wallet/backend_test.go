package wallet_test

import (
	"context"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

const (
	testPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func gwei(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), big.NewInt(1_000_000_000))
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeBackend is an in-memory stand-in for an RPC node.
type fakeBackend struct {
	mu sync.Mutex

	chainID     *big.Int
	header      *types.Header
	headerErr   error
	tipCap      *big.Int
	tipCapErr   error
	gasPrice    *big.Int
	gasPriceErr error
	nonce       uint64
	balance     *big.Int
	callResult  []byte
	callErr     error
	sendErr     error

	// receiptStatus is the status of receipts for sent transactions
	receiptStatus uint64
	// withholdReceipts keeps sent transactions unmined
	withholdReceipts bool

	sent   []*types.Transaction
	calls  []ethereum.CallMsg
	closed bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:       big.NewInt(98866),
		header:        &types.Header{Number: big.NewInt(100), BaseFee: gwei(3)},
		tipCap:        gwei(2),
		gasPrice:      gwei(4),
		nonce:         7,
		balance:       gwei(1_000_000_000),
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	return b.header.Number.Uint64(), nil
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return b.header, b.headerErr
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return b.tipCap, b.tipCapErr
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return b.gasPrice, b.gasPriceErr
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.withholdReceipts {
		return nil, ethereum.NotFound
	}
	for _, tx := range b.sent {
		if tx.Hash() == hash {
			return &types.Receipt{
				Status:            b.receiptStatus,
				TxHash:            hash,
				BlockNumber:       big.NewInt(101),
				GasUsed:           45000,
				EffectiveGasPrice: gwei(5),
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return b.balance, nil
}

func (b *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.calls = append(b.calls, call)
	return b.callResult, b.callErr
}

func (b *fakeBackend) Close() {
	b.closed = true
}

func (b *fakeBackend) sentTransactions() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}
