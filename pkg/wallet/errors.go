package wallet

import (
	"errors"
	"fmt"
)

// Error codes for wallet operations
const (
	// ErrCodeInvalidAddress indicates an invalid blockchain address format
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	// ErrCodeInvalidPrivateKey indicates an invalid or malformed private key
	ErrCodeInvalidPrivateKey = "INVALID_PRIVATE_KEY"
	// ErrCodeTransactionFailed indicates a transaction could not be signed or sent
	ErrCodeTransactionFailed = "TRANSACTION_FAILED"
	// ErrCodeTransactionReverted indicates a transaction was mined with a failed status
	ErrCodeTransactionReverted = "TRANSACTION_REVERTED"
	// ErrCodeGasEstimationFailed indicates no fee data could be read from the network
	ErrCodeGasEstimationFailed = "GAS_ESTIMATION_FAILED"
	// ErrCodeInvalidFee indicates a fee quote is missing or malformed
	ErrCodeInvalidFee = "INVALID_FEE"
	// ErrCodeRPCError indicates an RPC connection or call failed
	ErrCodeRPCError = "RPC_ERROR"
	// ErrCodeTimeout indicates operation timed out
	ErrCodeTimeout = "TIMEOUT"
	// ErrCodeInvalidABI indicates invalid or malformed contract ABI
	ErrCodeInvalidABI = "INVALID_ABI"
	// ErrCodeContractError indicates contract interaction failed
	ErrCodeContractError = "CONTRACT_ERROR"
	// ErrCodeChainMismatch indicates chain ID mismatch
	ErrCodeChainMismatch = "CHAIN_MISMATCH"
)

// WalletError represents a wallet-specific error with additional context
// about the error type, message, underlying error and network.
type WalletError struct {
	Code    string      // Error code identifying the type of error
	Message string      // Human readable error message
	Err     error       // Underlying error if any
	Network NetworkType // Network where the error occurred
}

// Error formats the code, message, network (if present) and underlying error.
func (e *WalletError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Network != "" {
		msg += fmt.Sprintf(" on network %s", e.Network)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *WalletError) Unwrap() error {
	return e.Err
}

// NewWalletError creates a new WalletError with the given parameters.
func NewWalletError(code string, message string, err error, network NetworkType) *WalletError {
	return &WalletError{
		Code:    code,
		Message: message,
		Err:     err,
		Network: network,
	}
}

// IsWalletError reports whether err, or any error it wraps, is a WalletError with
// the given code.
func IsWalletError(err error, code string) bool {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code == code
	}
	return false
}

// ErrorCode returns the code of the first WalletError in err's chain, or "" if none.
func ErrorCode(err error) string {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
