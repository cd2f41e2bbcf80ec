package distributor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"presale/ledger"
	"presale/retry"
)

var errNotYetConfirmed = errors.New("transaction not yet confirmed")

// awaitConfirmation polls until the signature reaches the confirmed
// commitment level. An on-chain error ends polling immediately and is
// returned to the caller, which decides whether the surrounding
// operation is retryable.
func awaitConfirmation(ctx context.Context, client ledger.Client, sig solana.Signature, attempts int, delay time.Duration) error {
	return retry.Do(ctx, attempts, retry.FixedDelay(delay), func(int) error {
		status, err := client.SignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if status.Found && status.TxErr != "" {
			return retry.Abort(fmt.Errorf("transaction %s failed: %s", sig, status.TxErr))
		}
		if status.Found && (status.Confirmed || status.Finalized) {
			return nil
		}
		return errNotYetConfirmed
	})
}
