package wallet

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"mvx-swap/pkg/tx"
)

const pemTypePrefix = "PRIVATE KEY for "

// Signer holds a single ed25519 key loaded for the duration of a command
type Signer struct {
	key     ed25519.PrivateKey
	address string
}

// LoadPEM reads a wallet key file
func LoadPEM(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return ParsePEM(data)
}

// ParsePEM decodes a "BEGIN PRIVATE KEY for erd1..." block. The body holds the
// hex encoded seed followed by the public key.
func ParsePEM(data []byte) (*Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if !strings.HasPrefix(block.Type, pemTypePrefix) {
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	label := strings.TrimPrefix(block.Type, pemTypePrefix)

	// block.Bytes is already base64-decoded: it is the hex text itself
	raw, err := hex.DecodeString(strings.TrimSpace(string(block.Bytes)))
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding: %w", err)
	}

	var seed, pub []byte
	switch len(raw) {
	case ed25519.SeedSize:
		seed = raw
	case ed25519.SeedSize + ed25519.PublicKeySize:
		seed, pub = raw[:ed25519.SeedSize], raw[ed25519.SeedSize:]
	default:
		return nil, fmt.Errorf("invalid key length %d", len(raw))
	}

	key := ed25519.NewKeyFromSeed(seed)
	derived := key.Public().(ed25519.PublicKey)
	if pub != nil && !bytes.Equal(pub, derived) {
		return nil, fmt.Errorf("public key does not match private key")
	}

	address, err := tx.EncodeAddress(derived)
	if err != nil {
		return nil, err
	}
	if label != "" && label != address {
		return nil, fmt.Errorf("key belongs to %s, not %s", address, label)
	}

	return &Signer{key: key, address: address}, nil
}

// EncodePEM serializes a seed in the wallet key file format
func EncodePEM(seed []byte) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	key := ed25519.NewKeyFromSeed(seed)
	pub := key.Public().(ed25519.PublicKey)
	address, err := tx.EncodeAddress(pub)
	if err != nil {
		return nil, err
	}

	body := hex.EncodeToString(append(append([]byte{}, seed...), pub...))
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemTypePrefix + address,
		Bytes: []byte(body),
	}), nil
}

// Address returns the erd1... address of the key
func (s *Signer) Address() string {
	return s.address
}

// SignTransaction signs a copy of t. The sender must be the key's address.
func (s *Signer) SignTransaction(t *tx.Transaction) (*tx.SignedTransaction, error) {
	if t == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	if t.Sender != s.address {
		return nil, fmt.Errorf("sender %s does not match signer %s", t.Sender, s.address)
	}

	signed := &tx.SignedTransaction{Transaction: *t}
	msg, err := signed.SigningBytes()
	if err != nil {
		return nil, err
	}
	signed.Signature = hex.EncodeToString(ed25519.Sign(s.key, msg))
	return signed, nil
}

// Verify checks a signed transaction against the signer's public key
func (s *Signer) Verify(signed *tx.SignedTransaction) bool {
	sig, err := hex.DecodeString(signed.Signature)
	if err != nil {
		return false
	}
	msg, err := signed.SigningBytes()
	if err != nil {
		return false
	}
	return ed25519.Verify(s.key.Public().(ed25519.PublicKey), msg, sig)
}
