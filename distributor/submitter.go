package distributor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"

	"presale/exporter"
	"presale/ledger"
	"presale/retry"
)

// TransferSubmitter builds and submits the disbursement transfer with
// bounded retries. Every attempt fetches a fresh blockhash; reusing a
// stale one is a known cause of silent rejection.
type TransferSubmitter struct {
	client           ledger.Client
	signer           solana.PrivateKey
	maxAttempts      int
	baseDelay        time.Duration
	computeUnitLimit uint32
	confirmAttempts  int
	confirmDelay     time.Duration
}

func NewTransferSubmitter(client ledger.Client, signer solana.PrivateKey, maxAttempts int, baseDelay time.Duration, computeUnitLimit uint32, confirmAttempts int, confirmDelay time.Duration) *TransferSubmitter {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if computeUnitLimit == 0 {
		computeUnitLimit = 200_000
	}
	if confirmAttempts < 1 {
		confirmAttempts = 15
	}
	return &TransferSubmitter{
		client:           client,
		signer:           signer,
		maxAttempts:      maxAttempts,
		baseDelay:        baseDelay,
		computeUnitLimit: computeUnitLimit,
		confirmAttempts:  confirmAttempts,
		confirmDelay:     confirmDelay,
	}
}

// Submit transfers amount base units from source to destination,
// authorized by the custodial signer. It retries up to maxAttempts
// with linear backoff baseDelay*attempt and returns the last observed
// error when every attempt fails.
func (s *TransferSubmitter) Submit(ctx context.Context, source, destination solana.PublicKey, amount uint64) (solana.Signature, error) {
	authority := s.signer.PublicKey()
	var sig solana.Signature

	err := retry.Do(ctx, s.maxAttempts, retry.LinearBackoff(s.baseDelay), func(attempt int) error {
		// Fresh blockhash on every attempt.
		recent, err := s.client.LatestBlockhash(ctx)
		if err != nil {
			return s.attemptFailed(attempt, fmt.Errorf("failed to get blockhash: %w", err))
		}

		instructions := []solana.Instruction{
			computebudget.NewSetComputeUnitLimitInstruction(s.computeUnitLimit).Build(),
			token.NewTransferInstruction(amount, source, destination, authority, nil).Build(),
		}

		tx, err := solana.NewTransaction(instructions, recent, solana.TransactionPayer(authority))
		if err != nil {
			return s.attemptFailed(attempt, fmt.Errorf("failed to create transaction: %w", err))
		}

		_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			if authority.Equals(key) {
				return &s.signer
			}
			return nil
		})
		if err != nil {
			return retry.Abort(fmt.Errorf("failed to sign transaction: %w", err))
		}

		out, err := s.client.SendTransaction(ctx, tx)
		if err != nil {
			return s.attemptFailed(attempt, fmt.Errorf("failed to send transaction: %w", err))
		}

		if err := awaitConfirmation(ctx, s.client, out, s.confirmAttempts, s.confirmDelay); err != nil {
			return s.attemptFailed(attempt, fmt.Errorf("transfer %s unconfirmed: %w", out, err))
		}

		sig = out
		return nil
	})
	if err != nil {
		return solana.Signature{}, err
	}

	s.sanityCheck(ctx, destination, amount)
	return sig, nil
}

func (s *TransferSubmitter) attemptFailed(attempt int, err error) error {
	log.Printf("🔴 transfer attempt %d/%d - %v", attempt, s.maxAttempts, err)
	exporter.IncTransferRetry()
	return err
}

// sanityCheck rereads the destination balance after a short pause and
// logs a mismatch. Observability only, never fails the call.
func (s *TransferSubmitter) sanityCheck(ctx context.Context, destination solana.PublicKey, amount uint64) {
	time.Sleep(s.confirmDelay)
	balance, err := s.client.TokenAccountBalance(ctx, destination)
	if err != nil {
		log.Printf("⚠️ post-transfer balance check for %s failed: %v", destination, err)
		return
	}
	if balance < amount {
		log.Printf("⚠️ destination %s holds %d, below the %d just transferred", destination, balance, amount)
	}
}
