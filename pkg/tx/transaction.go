package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"mvx-swap/pkg/types"
)

const (
	DefaultGasLimit uint64 = 10_000_000
	DefaultGasPrice uint64 = 1_000_000_000
	txVersion       uint32 = 1
)

// Network selects the chain a transaction is built for
type Network string

const (
	Testnet Network = "test"
	Devnet  Network = "dev"
	Mainnet Network = "main"
)

// ParseNetwork accepts test/dev/main and their long forms
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "test", "testnet", "t":
		return Testnet, nil
	case "dev", "devnet", "d":
		return Devnet, nil
	case "main", "mainnet", "1":
		return Mainnet, nil
	default:
		return "", fmt.Errorf("unknown network %q (expected test, dev or main)", s)
	}
}

// ChainID returns the chain identifier placed in transactions
func (n Network) ChainID() string {
	switch n {
	case Devnet:
		return "D"
	case Mainnet:
		return "1"
	default:
		return "T"
	}
}

// Transaction is an unsigned MultiversX transaction. Field order matches the
// canonical serialization that gets signed.
type Transaction struct {
	Nonce     uint64 `json:"nonce"`
	Value     string `json:"value"`
	Receiver  string `json:"receiver"`
	Sender    string `json:"sender"`
	GasPrice  uint64 `json:"gasPrice"`
	GasLimit  uint64 `json:"gasLimit"`
	Data      []byte `json:"data,omitempty"`
	ChainID   string `json:"chainID"`
	Version   uint32 `json:"version"`
	Signature string `json:"signature,omitempty"`

	// Venue is not part of the wire format
	Venue types.VenueID `json:"-"`
}

// DataString returns the call data as plain text
func (t *Transaction) DataString() string {
	return string(t.Data)
}

// SigningBytes returns the serialization covered by the signature
func (t *Transaction) SigningBytes() ([]byte, error) {
	unsigned := *t
	unsigned.Signature = ""
	data, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return data, nil
}

// SignedTransaction is a transaction carrying a signature
type SignedTransaction struct {
	Transaction
}

// Hash returns the hex blake2b-256 digest of the signed transaction
func (s *SignedTransaction) Hash() (string, error) {
	if s.Signature == "" {
		return "", fmt.Errorf("transaction is not signed")
	}
	data, err := json.Marshal(&s.Transaction)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
