package distributor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"presale/ledger"
)

// BalanceCheck is the outcome of a treasury liquidity check.
// Insufficient is a value, not an error.
type BalanceCheck struct {
	Sufficient bool
	Available  uint64
}

// BalanceGuard reads the treasury holding-account balance before a
// disbursement. The check is advisory: the ledger offers no cross-call
// locking, so the balance can change between this read and the
// transfer.
type BalanceGuard struct {
	client ledger.Client
	// minReserve is the base-unit floor kept in the treasury after a
	// disbursement.
	minReserve uint64
}

func NewBalanceGuard(client ledger.Client, minReserve uint64) *BalanceGuard {
	return &BalanceGuard{client: client, minReserve: minReserve}
}

func (g *BalanceGuard) Check(ctx context.Context, holding solana.PublicKey, required uint64) (BalanceCheck, error) {
	available, err := g.client.TokenAccountBalance(ctx, holding)
	if err != nil {
		return BalanceCheck{}, fmt.Errorf("failed to read treasury balance: %w", err)
	}
	sufficient := available >= required && available-required >= g.minReserve
	return BalanceCheck{Sufficient: sufficient, Available: available}, nil
}
