package distributor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"

	"presale/ledger"
	"presale/retry"
)

// VerifyOutcome reports how a payment proof was accepted.
type VerifyOutcome int

const (
	// VerifyConfirmed means the payment is confirmed on the ledger, or
	// no proof was needed.
	VerifyConfirmed VerifyOutcome = iota
	// VerifyTolerated means confirmation polling was exhausted but the
	// transaction exists on the ledger. The pipeline proceeds with a
	// logged caveat.
	VerifyTolerated
)

var errStatusUnknown = errors.New("payment status not yet known")

// PaymentVerifier confirms an inbound payment before any tokens move.
type PaymentVerifier struct {
	client       ledger.Client
	requireProof bool
	pollAttempts int
	pollDelay    time.Duration
}

func NewPaymentVerifier(client ledger.Client, requireProof bool, pollAttempts int, pollDelay time.Duration) *PaymentVerifier {
	if pollAttempts < 1 {
		pollAttempts = 3
	}
	return &PaymentVerifier{
		client:       client,
		requireProof: requireProof,
		pollAttempts: pollAttempts,
		pollDelay:    pollDelay,
	}
}

// Verify checks the claimed inbound payment. An empty proof is an
// immediate error when proof is required and a no-op otherwise; no
// ledger call is made in either case.
func (v *PaymentVerifier) Verify(ctx context.Context, proof string) (VerifyOutcome, error) {
	if proof == "" {
		if v.requireProof {
			return 0, ErrMissingProof
		}
		return VerifyConfirmed, nil
	}

	sig, err := solana.SignatureFromBase58(proof)
	if err != nil {
		return 0, fmt.Errorf("invalid payment signature: %w", err)
	}

	err = retry.Do(ctx, v.pollAttempts, retry.FixedDelay(v.pollDelay), func(int) error {
		status, err := v.client.SignatureStatus(ctx, sig)
		if err != nil {
			return err
		}
		if status.Found && status.TxErr != "" {
			return retry.Abort(fmt.Errorf("%w: %s", ErrPaymentFailed, status.TxErr))
		}
		if status.Found && (status.Confirmed || status.Finalized) {
			return nil
		}
		return errStatusUnknown
	})
	if err == nil {
		return VerifyConfirmed, nil
	}
	if errors.Is(err, ErrPaymentFailed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, err
	}

	// Polling exhausted without a definitive answer. A bare existence
	// check keeps the presale available when the RPC node lags behind
	// the cluster; the trade-off is accepting a payment that could
	// still fail.
	exists, exErr := v.client.TransactionExists(ctx, sig)
	if exErr == nil && exists {
		log.Printf("⚠️ payment %s unconfirmed after %d polls but present on ledger, proceeding", proof, v.pollAttempts)
		return VerifyTolerated, nil
	}
	return 0, fmt.Errorf("payment %s not found on ledger: %w", proof, err)
}
