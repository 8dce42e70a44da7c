package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyManager holds the agent's signing key and the address derived from it.
type KeyManager struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewKeyManager creates a key manager from a hex-encoded private key, with or
// without a 0x prefix.
//
// Example:
//
//	km, err := NewKeyManager("0x1234...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	address := km.GetAddress()
func NewKeyManager(privateKeyHex string) (*KeyManager, error) {
	privateKeyHex = strings.TrimSpace(privateKeyHex)
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	privateKeyHex = strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &KeyManager{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// GetAddress returns the address that signs and pays for the agent's transactions.
func (km *KeyManager) GetAddress() common.Address {
	return km.address
}

// SignTx signs tx for chainID with the latest signer the chain supports.
func (km *KeyManager) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), km.privateKey)
}
