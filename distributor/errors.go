package distributor

import (
	"errors"
	"strings"
)

// Error kinds crossing the core/UI boundary. Every failure path maps
// to exactly one of these; raw ledger errors stay in the server logs.
const (
	KindInvalidInput                = "InvalidInput"
	KindMissingPaymentProof         = "MissingPaymentProof"
	KindPaymentVerificationFailed   = "PaymentVerificationFailed"
	KindTreasurySetupError          = "TreasurySetupError"
	KindInsufficientTreasuryBalance = "InsufficientTreasuryBalance"
	KindAccountCreationFailed       = "AccountCreationFailed"
	KindTransferFailed              = "TransferFailed"
	KindInternalError               = "InternalError"
)

// ErrMissingProof is returned by the verifier when the deployment
// requires a payment proof and none was supplied.
var ErrMissingProof = errors.New("payment proof is required")

// ErrPaymentFailed marks an inbound payment the ledger reported as
// failed on chain.
var ErrPaymentFailed = errors.New("payment transaction failed on chain")

// UserMessage translates a ledger error into a hint safe to return to
// the buyer. Known failure shapes get a readable message; anything
// else is truncated so internal detail stays out of responses.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	if strings.Contains(msg, "BlockhashNotFound") || strings.Contains(msg, "Blockhash not found") {
		return "Transaction expired before confirmation. Please try again."
	}
	if strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "insufficient lamports") {
		return "The treasury wallet cannot cover the transaction cost."
	}
	if strings.Contains(msg, "simulation failed") {
		return "Transaction simulation failed on the ledger."
	}
	if len(msg) > 300 {
		return msg[:300] + "..."
	}
	return msg
}
