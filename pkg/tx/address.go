package tx

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	addressHRP = "erd"
	addressLen = 32
)

// DecodeAddress returns the 32-byte public key behind an erd1... address
func DecodeAddress(address string) ([]byte, error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	if hrp != addressHRP {
		return nil, fmt.Errorf("invalid address %q: unexpected prefix %q", address, hrp)
	}

	pub, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	if len(pub) != addressLen {
		return nil, fmt.Errorf("invalid address %q: expected %d bytes, got %d", address, addressLen, len(pub))
	}

	return pub, nil
}

// EncodeAddress converts a 32-byte public key into its erd1... form
func EncodeAddress(pub []byte) (string, error) {
	if len(pub) != addressLen {
		return "", fmt.Errorf("public key must be %d bytes, got %d", addressLen, len(pub))
	}

	data, err := bech32.ConvertBits(pub, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert public key: %w", err)
	}

	return bech32.Encode(addressHRP, data)
}

// IsValidAddress reports whether address is a well-formed erd1... address
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}
