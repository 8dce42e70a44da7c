package wallet

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// addressRegex checks for a "0x" prefix followed by exactly 40 hexadecimal characters.
var addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// ValidateAddress checks an address string's format and, when it is mixed case,
// its EIP-55 checksum.
//
// Example:
//
//	if err := ValidateAddress(PLUME, cfg.ContractAddress); err != nil {
//	    log.Fatal(err)
//	}
func ValidateAddress(network NetworkType, address string) error {
	if !addressRegex.MatchString(address) {
		return NewWalletError(ErrCodeInvalidAddress, "invalid address format", nil, network)
	}

	// All-lowercase and all-uppercase addresses carry no checksum
	hexPart := address[2:]
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return nil
	}

	if address != common.HexToAddress(address).Hex() {
		return NewWalletError(ErrCodeInvalidAddress, "invalid address checksum", nil, network)
	}
	return nil
}
