package distributor

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"

	"presale/ledger"
)

// HoldingAccount derives the associated token account for a wallet and
// mint. Pure derivation, no ledger call.
func HoldingAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress(
		[][]byte{
			owner.Bytes(),
			solana.TokenProgramID.Bytes(),
			mint.Bytes(),
		},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive holding account: %w", err)
	}
	return ata, nil
}

// TreasuryAccountResolver looks up or creates the holding account for
// a wallet. Creation cost is always paid by the custodial signer, so a
// buyer never has to pre-fund their own account.
type TreasuryAccountResolver struct {
	client          ledger.Client
	signer          solana.PrivateKey
	mint            solana.PublicKey
	confirmAttempts int
	confirmDelay    time.Duration
}

func NewTreasuryAccountResolver(client ledger.Client, signer solana.PrivateKey, mint solana.PublicKey, confirmAttempts int, confirmDelay time.Duration) *TreasuryAccountResolver {
	if confirmAttempts < 1 {
		confirmAttempts = 15
	}
	return &TreasuryAccountResolver{
		client:          client,
		signer:          signer,
		mint:            mint,
		confirmAttempts: confirmAttempts,
		confirmDelay:    confirmDelay,
	}
}

// Resolve returns the initialized holding account for owner, creating
// it on the ledger if absent. Failures are not retried here; the
// caller owns the overall retry policy.
func (r *TreasuryAccountResolver) Resolve(ctx context.Context, owner solana.PublicKey) (solana.PublicKey, error) {
	holding, err := HoldingAccount(owner, r.mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	exists, err := r.client.AccountExists(ctx, holding)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to check holding account %s: %w", holding, err)
	}
	if exists {
		return holding, nil
	}

	if err := r.create(ctx, owner); err != nil {
		return solana.PublicKey{}, err
	}
	return holding, nil
}

func (r *TreasuryAccountResolver) create(ctx context.Context, owner solana.PublicKey) error {
	payer := r.signer.PublicKey()

	instruction, err := associatedtokenaccount.NewCreateInstruction(payer, owner, r.mint).ValidateAndBuild()
	if err != nil {
		return fmt.Errorf("failed to build create instruction: %w", err)
	}

	recent, err := r.client.LatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if payer.Equals(key) {
			return &r.signer
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := r.client.SendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to create holding account for %s: %w", owner, err)
	}

	if err := awaitConfirmation(ctx, r.client, sig, r.confirmAttempts, r.confirmDelay); err != nil {
		return fmt.Errorf("holding account creation unconfirmed: %w", err)
	}
	return nil
}
