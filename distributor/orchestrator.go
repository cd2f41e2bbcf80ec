package distributor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"presale/exporter"
	"presale/ledger"
)

// Options configures a DistributionOrchestrator. Zero values fall back
// to production defaults.
type Options struct {
	// Signer is the custodial presale keypair. It never leaves the
	// server process.
	Signer solana.PrivateKey
	// Mint is the token being disbursed.
	Mint solana.PublicKey
	// Decimals is the token's base-unit exponent.
	Decimals uint8

	RequireProof      bool
	ProofPollAttempts int
	ProofPollDelay    time.Duration

	MaxAttempts      int
	RetryDelay       time.Duration
	ComputeUnitLimit uint32
	ConfirmAttempts  int
	ConfirmDelay     time.Duration

	// MinReserve is the base-unit balance the treasury keeps after any
	// disbursement.
	MinReserve uint64
}

func (o *Options) applyDefaults() {
	if o.Decimals == 0 {
		o.Decimals = 9
	}
	if o.ProofPollAttempts == 0 {
		o.ProofPollAttempts = 3
	}
	if o.ProofPollDelay == 0 {
		o.ProofPollDelay = 2 * time.Second
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 5
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.ConfirmAttempts == 0 {
		o.ConfirmAttempts = 15
	}
	if o.ConfirmDelay == 0 {
		o.ConfirmDelay = 2 * time.Second
	}
}

// DistributionOrchestrator is the public entry point of the token
// distribution pipeline. It sequences payment verification, account
// resolution, the balance check and the transfer, and maps every
// failure mode to a structured result.
type DistributionOrchestrator struct {
	client    ledger.Client
	verifier  *PaymentVerifier
	resolver  *TreasuryAccountResolver
	guard     *BalanceGuard
	submitter *TransferSubmitter
	treasury  solana.PublicKey
	decimals  uint8

	// mu serializes the check-then-spend sequence so two concurrent
	// requests cannot both pass the balance check against the same
	// treasury and overdraw it.
	mu sync.Mutex
}

func NewDistributionOrchestrator(client ledger.Client, opts Options) *DistributionOrchestrator {
	opts.applyDefaults()
	return &DistributionOrchestrator{
		client:    client,
		verifier:  NewPaymentVerifier(client, opts.RequireProof, opts.ProofPollAttempts, opts.ProofPollDelay),
		resolver:  NewTreasuryAccountResolver(client, opts.Signer, opts.Mint, opts.ConfirmAttempts, opts.ConfirmDelay),
		guard:     NewBalanceGuard(client, opts.MinReserve),
		submitter: NewTransferSubmitter(client, opts.Signer, opts.MaxAttempts, opts.RetryDelay, opts.ComputeUnitLimit, opts.ConfirmAttempts, opts.ConfirmDelay),
		treasury:  opts.Signer.PublicKey(),
		decimals:  opts.Decimals,
	}
}

// Distribute runs the full pipeline for one disbursement request.
// Every branch returns a structured result; no raw error escapes.
func (o *DistributionOrchestrator) Distribute(ctx context.Context, req DisbursementRequest) (result DistributionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔴 panic during distribution for %s: %v", req.BuyerAddress, r)
			exporter.IncDistributionFailure()
			result = failure(KindInternalError, "unexpected internal error")
		}
	}()

	buyer, err := solana.PublicKeyFromBase58(req.BuyerAddress)
	if err != nil {
		return failure(KindInvalidInput, "invalid buyer address")
	}
	human, err := ParseAmount(req.Amount)
	if err != nil {
		return failure(KindInvalidInput, err.Error())
	}
	units, err := ToBaseUnits(human, o.decimals)
	if err != nil {
		return failure(KindInvalidInput, err.Error())
	}
	if units == 0 {
		return failure(KindInvalidInput, "amount is below one base unit")
	}

	outcome, err := o.verifier.Verify(ctx, req.PaymentProof)
	if err != nil {
		exporter.IncDistributionFailure()
		if errors.Is(err, ErrMissingProof) {
			return failure(KindMissingPaymentProof, "a payment signature is required")
		}
		return failure(KindPaymentVerificationFailed, UserMessage(err))
	}
	if outcome == VerifyTolerated {
		exporter.IncProofTolerated()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	source, err := o.resolver.Resolve(ctx, o.treasury)
	if err != nil {
		exporter.IncDistributionFailure()
		return failure(KindTreasurySetupError, UserMessage(err))
	}

	check, err := o.guard.Check(ctx, source, units)
	if err != nil {
		exporter.IncDistributionFailure()
		return failure(KindTreasurySetupError, UserMessage(err))
	}
	if !check.Sufficient {
		available := FromBaseUnits(check.Available, o.decimals)
		result := failure(KindInsufficientTreasuryBalance,
			fmt.Sprintf("treasury holds %g, requested %g", available, human))
		result.AvailableBalance = available
		result.RequestedAmount = human
		return result
	}

	destination, err := o.resolver.Resolve(ctx, buyer)
	if err != nil {
		exporter.IncDistributionFailure()
		return failure(KindAccountCreationFailed, UserMessage(err))
	}

	sig, err := o.submitter.Submit(ctx, source, destination, units)
	if err != nil {
		exporter.IncDistributionFailure()
		return failure(KindTransferFailed, UserMessage(err))
	}

	exporter.IncDistributionSuccess()
	log.Printf("✅ distributed %g to %s - %s", human, req.BuyerAddress, sig)
	return DistributionResult{Success: true, Signature: sig.String()}
}

// VerifyBalance answers whether the treasury can cover a requested
// amount without moving anything.
func (o *DistributionOrchestrator) VerifyBalance(ctx context.Context, rawAmount string) BalanceResult {
	human, err := ParseAmount(rawAmount)
	if err != nil {
		return BalanceResult{ErrorKind: KindInvalidInput, Details: err.Error()}
	}
	units, err := ToBaseUnits(human, o.decimals)
	if err != nil {
		return BalanceResult{ErrorKind: KindInvalidInput, Details: err.Error()}
	}

	source, err := o.resolver.Resolve(ctx, o.treasury)
	if err != nil {
		return BalanceResult{ErrorKind: KindTreasurySetupError, Details: UserMessage(err)}
	}
	check, err := o.guard.Check(ctx, source, units)
	if err != nil {
		return BalanceResult{ErrorKind: KindTreasurySetupError, Details: UserMessage(err)}
	}
	return BalanceResult{
		Available:        check.Sufficient,
		AvailableBalance: FromBaseUnits(check.Available, o.decimals),
		RequestedAmount:  human,
	}
}

// TreasuryStatus is the amount-less health view of the treasury
// holding account.
type TreasuryStatus struct {
	Initialized bool    `json:"initialized"`
	Balance     float64 `json:"balance"`
	BaseUnits   uint64  `json:"baseUnits"`
}

// VerifyTokens reports whether the treasury holding account exists
// and how much it currently holds. Read-only; no amount is checked.
func (o *DistributionOrchestrator) VerifyTokens(ctx context.Context) (TreasuryStatus, error) {
	holding, err := HoldingAccount(o.treasury, o.resolver.mint)
	if err != nil {
		return TreasuryStatus{}, err
	}
	exists, err := o.client.AccountExists(ctx, holding)
	if err != nil {
		return TreasuryStatus{}, fmt.Errorf("failed to check treasury holding account: %w", err)
	}
	if !exists {
		return TreasuryStatus{}, nil
	}
	units, err := o.client.TokenAccountBalance(ctx, holding)
	if err != nil {
		return TreasuryStatus{}, fmt.Errorf("failed to read treasury balance: %w", err)
	}
	return TreasuryStatus{
		Initialized: true,
		Balance:     FromBaseUnits(units, o.decimals),
		BaseUnits:   units,
	}, nil
}

// VerifyDistribution reports whether the buyer has an initialized
// holding account for the presale token, i.e. a distribution could
// have landed.
func (o *DistributionOrchestrator) VerifyDistribution(ctx context.Context, buyerAddress string) (bool, error) {
	buyer, err := solana.PublicKeyFromBase58(buyerAddress)
	if err != nil {
		return false, fmt.Errorf("invalid buyer address: %w", err)
	}
	holding, err := HoldingAccount(buyer, o.resolver.mint)
	if err != nil {
		return false, err
	}
	return o.client.AccountExists(ctx, holding)
}
