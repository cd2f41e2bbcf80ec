package distributor

// DisbursementRequest - Request from the UI layer to send tokens to a
// buyer who already paid in SOL.
type DisbursementRequest struct {
	// BuyerAddress must parse as a base58 ledger address.
	BuyerAddress string
	// Amount is the requested quantity in human units.
	Amount string
	// PaymentProof is the signature of the buyer's inbound SOL
	// payment. Optional unless the deployment requires proof.
	PaymentProof string
}

// DistributionResult is the only value returned across the core/UI
// boundary.
type DistributionResult struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	ErrorKind string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
	// Populated on InsufficientTreasuryBalance for display.
	AvailableBalance float64 `json:"availableBalance,omitempty"`
	RequestedAmount  float64 `json:"requestedAmount,omitempty"`
}

// BalanceResult - Response for the verify-balance operation.
type BalanceResult struct {
	Available        bool    `json:"available"`
	AvailableBalance float64 `json:"availableBalance,omitempty"`
	RequestedAmount  float64 `json:"requestedAmount,omitempty"`
	ErrorKind        string  `json:"error,omitempty"`
	Details          string  `json:"details,omitempty"`
}

func failure(kind, details string) DistributionResult {
	return DistributionResult{ErrorKind: kind, Details: details}
}
