package wallet_test

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/lisanmuaddib/wrap-agent/pkg/wallet"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {
	var (
		ctx     context.Context
		backend *fakeBackend
		cfg     wallet.NetworkConfig
		quote   fees.Quote
	)

	newClient := func() *wallet.Client {
		client, err := wallet.NewClientWithBackend(ctx, quietLogger(), cfg, testPrivateKey, backend)
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	BeforeEach(func() {
		ctx = context.Background()
		backend = newFakeBackend()
		cfg = wallet.DefaultNetworkConfig()
		cfg.PollInterval = 5 * time.Millisecond
		cfg.ReceiptTimeout = 200 * time.Millisecond
		cfg.RPCRateLimit = 0
		quote = fees.Quote{PriorityFee: gwei(2), MaxFee: gwei(8), Tier: fees.TierNetwork}
	})

	Describe("construction", func() {
		It("resolves the chain ID and signing address", func() {
			client := newClient()
			Expect(client.ChainID()).To(BeWei(big.NewInt(98866)))
			Expect(client.Address()).To(Equal(common.HexToAddress(testAddress)))
			Expect(client.ContractAddress()).To(Equal(cfg.ContractAddress))
		})

		It("rejects a node on the wrong chain", func() {
			cfg.ChainID = 1
			_, err := wallet.NewClientWithBackend(ctx, quietLogger(), cfg, testPrivateKey, backend)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeChainMismatch)).To(BeTrue())
		})

		It("rejects a malformed private key", func() {
			_, err := wallet.NewClientWithBackend(ctx, quietLogger(), cfg, "not-a-key", backend)
			Expect(wallet.ErrorCode(err)).To(Equal(wallet.ErrCodeInvalidPrivateKey))
		})

		It("closes the backend", func() {
			newClient().Close()
			Expect(backend.closed).To(BeTrue())
		})
	})

	Describe("FeeParameters", func() {
		It("reports EIP-1559 fields as 2 x base fee + tip", func() {
			params, err := newClient().FeeParameters(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(params.LastBaseFee).To(BeWei(gwei(3)))
			Expect(params.PriorityFee).To(BeWei(gwei(2)))
			Expect(params.MaxFee).To(BeWei(gwei(8)))
			Expect(params.GasPrice).To(BeWei(gwei(4)))
		})

		It("falls back to a 1 gwei tip when the node has no suggestion", func() {
			backend.tipCapErr = errors.New("method not found")
			params, err := newClient().FeeParameters(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(params.PriorityFee).To(BeWei(gwei(1)))
			Expect(params.MaxFee).To(BeWei(gwei(7)))
		})

		It("leaves EIP-1559 fields empty on legacy chains", func() {
			backend.header = &types.Header{Number: big.NewInt(100)}
			params, err := newClient().FeeParameters(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(params.PriorityFee).To(BeNil())
			Expect(params.MaxFee).To(BeNil())
			Expect(params.LastBaseFee).To(BeNil())
			Expect(params.GasPrice).To(BeWei(gwei(4)))
		})

		It("fails when no fee data is available", func() {
			backend.headerErr = errors.New("connection refused")
			backend.gasPriceErr = errors.New("connection refused")
			_, err := newClient().FeeParameters(ctx)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeGasEstimationFailed)).To(BeTrue())
		})
	})

	Describe("LatestBaseFee", func() {
		It("returns the latest block's base fee", func() {
			baseFee, err := newClient().LatestBaseFee(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(baseFee).To(BeWei(gwei(3)))
		})

		It("returns nil without a base fee", func() {
			backend.header = &types.Header{Number: big.NewInt(100)}
			baseFee, err := newClient().LatestBaseFee(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(baseFee).To(BeNil())
		})

		It("wraps RPC failures", func() {
			backend.headerErr = errors.New("boom")
			_, err := newClient().LatestBaseFee(ctx)
			Expect(wallet.ErrorCode(err)).To(Equal(wallet.ErrCodeRPCError))
		})
	})

	Describe("SubmitWrap", func() {
		It("sends a signed deposit carrying the amount as value", func() {
			client := newClient()
			amount := big.NewInt(2_500_000_000_000_000_000)

			status, err := client.SubmitWrap(ctx, amount, quote)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.State).To(Equal(wallet.TxStateConfirmed))
			Expect(status.BlockNumber).To(BeWei(big.NewInt(101)))
			Expect(status.GasUsed).To(Equal(uint64(45000)))

			sent := backend.sentTransactions()
			Expect(sent).To(HaveLen(1))
			tx := sent[0]
			Expect(tx.Type()).To(Equal(uint8(types.DynamicFeeTxType)))
			Expect(tx.Data()).To(Equal(common.FromHex("0xd0e30db0")))
			Expect(tx.Value()).To(BeWei(amount))
			Expect(tx.Nonce()).To(Equal(uint64(7)))
			Expect(tx.Gas()).To(Equal(uint64(300000)))
			Expect(tx.GasTipCap()).To(BeWei(gwei(2)))
			Expect(tx.GasFeeCap()).To(BeWei(gwei(8)))
			Expect(*tx.To()).To(Equal(cfg.ContractAddress))
			Expect(status.Hash).To(Equal(tx.Hash()))

			sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(98866)), tx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sender).To(Equal(common.HexToAddress(testAddress)))
		})

		It("reports a reverted transaction", func() {
			backend.receiptStatus = types.ReceiptStatusFailed
			status, err := newClient().SubmitWrap(ctx, big.NewInt(1), quote)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeTransactionReverted)).To(BeTrue())
			Expect(status).NotTo(BeNil())
			Expect(status.State).To(Equal(wallet.TxStateFailed))
		})

		It("times out when no receipt arrives but still reports the hash", func() {
			backend.withholdReceipts = true
			status, err := newClient().SubmitWrap(ctx, big.NewInt(1), quote)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeTimeout)).To(BeTrue())

			sent := backend.sentTransactions()
			Expect(sent).To(HaveLen(1))
			Expect(status).NotTo(BeNil())
			Expect(status.Hash).To(Equal(sent[0].Hash()))
			Expect(status.State).To(Equal(wallet.TxStatePending))
			Expect(status.BlockNumber).To(BeNil())
		})

		It("reports the hash when the caller gives up waiting", func() {
			backend.withholdReceipts = true
			waitCtx, stop := context.WithTimeout(ctx, 20*time.Millisecond)
			defer stop()

			status, err := newClient().SubmitUnwrap(waitCtx, big.NewInt(1), quote)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeTimeout)).To(BeTrue())
			Expect(status).NotTo(BeNil())
			Expect(status.State).To(Equal(wallet.TxStatePending))
			Expect(status.Hash).To(Equal(backend.sentTransactions()[0].Hash()))
		})

		It("refuses an incomplete fee quote", func() {
			_, err := newClient().SubmitWrap(ctx, big.NewInt(1), fees.Quote{PriorityFee: gwei(1)})
			Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidFee)).To(BeTrue())
			Expect(backend.sentTransactions()).To(BeEmpty())
		})

		It("wraps send failures", func() {
			backend.sendErr = errors.New("insufficient funds")
			_, err := newClient().SubmitWrap(ctx, big.NewInt(1), quote)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeTransactionFailed)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("insufficient funds"))
		})

		It("reuses the nonce once the previous transaction completed", func() {
			client := newClient()
			_, err := client.SubmitWrap(ctx, big.NewInt(1), quote)
			Expect(err).NotTo(HaveOccurred())
			_, err = client.SubmitWrap(ctx, big.NewInt(1), quote)
			Expect(err).NotTo(HaveOccurred())

			sent := backend.sentTransactions()
			Expect(sent).To(HaveLen(2))
			Expect(sent[1].Nonce()).To(Equal(sent[0].Nonce()))
		})
	})

	Describe("SubmitUnwrap", func() {
		It("sends a withdraw call with no value", func() {
			amount := big.NewInt(3_000_000_000_000_000_000)
			_, err := newClient().SubmitUnwrap(ctx, amount, quote)
			Expect(err).NotTo(HaveOccurred())

			sent := backend.sentTransactions()
			Expect(sent).To(HaveLen(1))
			data := sent[0].Data()
			Expect(data).To(HaveLen(4 + 32))
			Expect(data[:4]).To(Equal(common.FromHex("0x2e1a7d4d")))
			Expect(data[4:]).To(Equal(common.LeftPadBytes(amount.Bytes(), 32)))
			Expect(sent[0].Value().Sign()).To(BeZero())
		})
	})

	Describe("balances", func() {
		It("decodes the wrapped token balance", func() {
			backend.callResult = common.LeftPadBytes(big.NewInt(1234).Bytes(), 32)
			client := newClient()

			balance, err := client.WrappedBalance(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(balance).To(BeWei(big.NewInt(1234)))

			Expect(backend.calls).To(HaveLen(1))
			Expect(*backend.calls[0].To).To(Equal(cfg.ContractAddress))
			Expect(backend.calls[0].Data[:4]).To(Equal(common.FromHex("0x70a08231")))
		})

		It("wraps contract call failures", func() {
			backend.callErr = errors.New("execution reverted")
			_, err := newClient().WrappedBalance(ctx)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeContractError)).To(BeTrue())
		})

		It("returns the native balance", func() {
			balance, err := newClient().NativeBalance(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(balance).To(BeWei(backend.balance))
		})

		It("returns the block height", func() {
			height, err := newClient().BlockNumber(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(height).To(Equal(uint64(100)))
		})
	})
})

var _ = Describe("KeyManager", func() {
	It("accepts keys with and without a 0x prefix", func() {
		withPrefix, err := wallet.NewKeyManager(testPrivateKey)
		Expect(err).NotTo(HaveOccurred())
		without, err := wallet.NewKeyManager(testPrivateKey[2:] + "\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(withPrefix.GetAddress()).To(Equal(without.GetAddress()))
		Expect(withPrefix.GetAddress().Hex()).To(Equal(testAddress))
	})

	It("rejects empty and malformed keys", func() {
		_, err := wallet.NewKeyManager("  ")
		Expect(err).To(MatchError(ContainSubstring("cannot be empty")))
		_, err = wallet.NewKeyManager("0x1234")
		Expect(err).To(MatchError(ContainSubstring("invalid private key")))
	})
})

var _ = Describe("ValidateAddress", func() {
	DescribeTable("address formats",
		func(address string, valid bool) {
			err := wallet.ValidateAddress(wallet.PLUME, address)
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(wallet.IsWalletError(err, wallet.ErrCodeInvalidAddress)).To(BeTrue())
			}
		},
		Entry("checksummed", testAddress, true),
		Entry("lowercase", "0xea237441c92cae6fc17caaf9a7acb3f953be4bd1", true),
		Entry("uppercase", "0xEA237441C92CAE6FC17CAAF9A7ACB3F953BE4BD1", true),
		Entry("bad checksum", "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266", false),
		Entry("too short", "0x1234", false),
		Entry("missing prefix", "f39Fd6e51aad88F6F4ce6aB8827279cffFb92266", false),
	)
})

var _ = Describe("NetworkConfig", func() {
	It("has usable defaults", func() {
		Expect(wallet.DefaultNetworkConfig().Validate()).To(Succeed())
	})

	It("rejects missing fields", func() {
		cfg := wallet.DefaultNetworkConfig()
		cfg.RPCURL = ""
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("RPC URL")))

		cfg = wallet.DefaultNetworkConfig()
		cfg.GasLimit = 0
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("gas limit")))

		cfg = wallet.DefaultNetworkConfig()
		cfg.ContractAddress = common.Address{}
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("contract address")))
	})
})
