package ledger

import (
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ParseSignedTransaction decodes a base64-encoded signed transaction
// received from a client wallet. The transaction must carry at least
// one signature; the caller never signs on the relay path.
func ParseSignedTransaction(signedTxBase64 string) (*solana.Transaction, error) {
	txBytes, err := base64.StdEncoding.DecodeString(signedTxBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	decoder := bin.NewBinDecoder(txBytes)
	var tx solana.Transaction
	if err := tx.UnmarshalWithDecoder(decoder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	if len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		return nil, fmt.Errorf("transaction is not signed")
	}
	return &tx, nil
}
