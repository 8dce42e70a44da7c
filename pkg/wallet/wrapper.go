package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lisanmuaddib/wrap-agent/pkg/fees"
	"github.com/sirupsen/logrus"
)

// wrappedTokenABI is the WETH-style interface of the wrapped-asset contract:
// deposit() payable mints wrapped tokens 1:1, withdraw(uint256) burns them and
// returns the native asset.
const wrappedTokenABI = `[
	{
		"inputs": [],
		"name": "deposit",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [{"name": "amount", "type": "uint256"}],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

func parseWrappedTokenABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(wrappedTokenABI))
}

// SubmitWrap deposits amount wei of the native asset into the wrapped-asset
// contract and waits for the transaction to be mined.
func (c *Client) SubmitWrap(ctx context.Context, amount *big.Int, quote fees.Quote) (*TransactionStatus, error) {
	data, err := c.contractABI.Pack("deposit")
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, "failed to encode deposit", err, c.config.Type)
	}
	return c.sendContractTransaction(ctx, "deposit", data, amount, quote)
}

// SubmitUnwrap withdraws amount wei of wrapped tokens back into the native asset
// and waits for the transaction to be mined.
func (c *Client) SubmitUnwrap(ctx context.Context, amount *big.Int, quote fees.Quote) (*TransactionStatus, error) {
	data, err := c.contractABI.Pack("withdraw", amount)
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, "failed to encode withdraw", err, c.config.Type)
	}
	return c.sendContractTransaction(ctx, "withdraw", data, new(big.Int), quote)
}

// WrappedBalance returns the agent account's wrapped token balance in wei.
func (c *Client) WrappedBalance(ctx context.Context) (*big.Int, error) {
	data, err := c.contractABI.Pack("balanceOf", c.Address())
	if err != nil {
		return nil, NewWalletError(ErrCodeInvalidABI, "failed to encode balanceOf", err, c.config.Type)
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	contract := c.config.ContractAddress
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeContractError, "failed to get token balance", err, c.config.Type)
	}

	out, err := c.contractABI.Unpack("balanceOf", result)
	if err != nil {
		return nil, NewWalletError(ErrCodeContractError, "failed to decode token balance", err, c.config.Type)
	}
	if len(out) == 0 {
		return nil, NewWalletError(ErrCodeContractError, "no balance returned", nil, c.config.Type)
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, NewWalletError(ErrCodeContractError, "failed to convert balance to *big.Int", nil, c.config.Type)
	}
	return balance, nil
}

// sendContractTransaction signs and sends an EIP-1559 call to the wrapped-asset
// contract priced by quote, then waits for its receipt.
func (c *Client) sendContractTransaction(ctx context.Context, method string, data []byte, value *big.Int, quote fees.Quote) (*TransactionStatus, error) {
	if quote.PriorityFee == nil || quote.MaxFee == nil {
		return nil, NewWalletError(ErrCodeInvalidFee, "fee quote is incomplete", nil, c.config.Type)
	}
	if value == nil || value.Sign() < 0 {
		return nil, NewWalletError(ErrCodeTransactionFailed, fmt.Sprintf("invalid value for %s", method), nil, c.config.Type)
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	nonce, err := c.nonceManager.GetNonce(ctx, c.backend, c.Address())
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get nonce", err, c.config.Type)
	}
	defer c.nonceManager.ReleaseNonce(nonce)

	contract := c.config.ContractAddress
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasTipCap: quote.PriorityFee,
		GasFeeCap: quote.MaxFee,
		Gas:       c.config.GasLimit,
		To:        &contract,
		Value:     value,
		Data:      data,
	})

	signedTx, err := c.keyManager.SignTx(tx, c.chainID)
	if err != nil {
		return nil, NewWalletError(ErrCodeTransactionFailed, "failed to sign transaction", err, c.config.Type)
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}
	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, NewWalletError(ErrCodeTransactionFailed, "failed to send transaction", err, c.config.Type)
	}

	c.log.WithFields(logrus.Fields{
		"method":            method,
		"tx_hash":           signedTx.Hash().Hex(),
		"nonce":             nonce,
		"value":             value.String(),
		"priority_fee_gwei": quote.PriorityFeeGwei(),
		"max_fee_gwei":      quote.MaxFeeGwei(),
	}).Info("Transaction sent, waiting for confirmation")

	return c.WaitForReceipt(ctx, signedTx.Hash())
}
