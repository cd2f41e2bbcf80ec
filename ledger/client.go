// Package ledger abstracts the remote Solana ledger behind the small
// set of operations the distribution pipeline needs. The RPC adapter
// talks to a real cluster; the Simulator implements the same interface
// in memory for development and tests.
package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// SignatureStatus is the distilled confirmation state of a submitted
// transaction.
type SignatureStatus struct {
	Found     bool
	Confirmed bool
	Finalized bool
	// TxErr is non-empty when the ledger recorded an on-chain failure
	// for the transaction. This is a definitive negative.
	TxErr string
}

// Client is the ledger surface consumed by the distribution pipeline.
type Client interface {
	// LatestBlockhash returns a fresh blockhash for transaction
	// construction. Must be called immediately before each submission.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// AccountExists reports whether an initialized account lives at
	// the given address.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)

	// TokenAccountBalance returns the integer base-unit balance of a
	// token holding account.
	TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// SignatureStatus polls the confirmation state of a signature.
	SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	// TransactionExists reports whether the ledger knows the
	// transaction at all, regardless of confirmation level.
	TransactionExists(ctx context.Context, sig solana.Signature) (bool, error)
}
