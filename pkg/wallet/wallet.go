package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mvx-swap/pkg/tx"
	"mvx-swap/pkg/types"
)

// Gateway is the part of the network proxy a wallet needs
type Gateway interface {
	GetNonce(ctx context.Context, address string) (uint64, error)
	SendTransaction(ctx context.Context, signed *tx.SignedTransaction) (string, error)
}

// Wallet signs with a caller-supplied key and broadcasts through a gateway
type Wallet struct {
	signer  *Signer
	gateway Gateway
	log     *zap.Logger
}

// New creates a wallet for one signer
func New(signer *Signer, gateway Gateway, log *zap.Logger) *Wallet {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wallet{signer: signer, gateway: gateway, log: log}
}

// Address returns the address transactions must be sent from
func (w *Wallet) Address() string {
	return w.signer.Address()
}

// Sign fetches the account nonce and signs the transaction
func (w *Wallet) Sign(ctx context.Context, t *tx.Transaction) (*tx.SignedTransaction, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transaction is nil", types.ErrSigning)
	}

	nonce, err := w.gateway.GetNonce(ctx, w.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	withNonce := *t
	withNonce.Nonce = nonce

	signed, err := w.signer.SignTransaction(&withNonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	w.log.Debug("transaction signed",
		zap.String("sender", signed.Sender),
		zap.String("receiver", signed.Receiver),
		zap.Uint64("nonce", nonce))
	return signed, nil
}

// Send broadcasts a signed transaction and returns the hash reported by the network
func (w *Wallet) Send(ctx context.Context, signed *tx.SignedTransaction) (string, error) {
	hash, err := w.gateway.SendTransaction(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrBroadcast, err)
	}
	return hash, nil
}
