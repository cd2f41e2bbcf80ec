package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"presale/distributor"
	"presale/history"
	"presale/ledger"
)

// explorer is implemented by ledger clients that can link a signature
// to a block explorer.
type explorer interface {
	ExplorerURL(signature string) string
}

// Server exposes the distribution pipeline over HTTP JSON.
type Server struct {
	orchestrator *distributor.DistributionOrchestrator
	client       ledger.Client
	recorder     *history.Recorder
}

func New(orchestrator *distributor.DistributionOrchestrator, client ledger.Client, recorder *history.Recorder) *Server {
	return &Server{
		orchestrator: orchestrator,
		client:       client,
		recorder:     recorder,
	}
}

// DistributeRequest - POST /api/v1/distribute
type DistributeRequest struct {
	BuyerPubkey  string     `json:"buyerPubkey"`
	XynAmount    flexAmount `json:"xynAmount"`
	SolSignature string     `json:"solSignature,omitempty"`
}

// DistributeResponse mirrors distributor.DistributionResult plus an
// explorer link when the client can produce one.
type DistributeResponse struct {
	distributor.DistributionResult
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// HandleDistribute - POST /api/v1/distribute
func (s *Server) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BuyerPubkey == "" || req.XynAmount == "" {
		respondError(w, "Missing buyerPubkey or xynAmount", http.StatusBadRequest)
		return
	}

	result := s.orchestrator.Distribute(r.Context(), distributor.DisbursementRequest{
		BuyerAddress: req.BuyerPubkey,
		Amount:       string(req.XynAmount),
		PaymentProof: req.SolSignature,
	})
	s.record(req, result)

	response := DistributeResponse{DistributionResult: result}
	if result.Success {
		if ex, ok := s.client.(explorer); ok {
			response.ExplorerURL = ex.ExplorerURL(result.Signature)
		}
	}
	respondJSON(w, response, statusForResult(result))
}

// VerifyBalanceRequest - POST /api/v1/verify-balance
type VerifyBalanceRequest struct {
	Amount flexAmount `json:"amount"`
}

// HandleVerifyBalance - POST /api/v1/verify-balance
func (s *Server) HandleVerifyBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req VerifyBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount == "" {
		respondError(w, "Amount is required", http.StatusBadRequest)
		return
	}

	result := s.orchestrator.VerifyBalance(r.Context(), string(req.Amount))
	status := http.StatusOK
	switch result.ErrorKind {
	case "":
	case distributor.KindInvalidInput:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	respondJSON(w, result, status)
}

// VerifyDistributionRequest - POST /api/v1/verify-distribution
type VerifyDistributionRequest struct {
	BuyerPubkey string `json:"buyerPubkey"`
}

// HandleVerifyDistribution - POST /api/v1/verify-distribution
func (s *Server) HandleVerifyDistribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req VerifyDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	received, err := s.orchestrator.VerifyDistribution(r.Context(), req.BuyerPubkey)
	if err != nil {
		log.Printf("🔴 distribution verification for %s - %v", req.BuyerPubkey, err)
		respondJSON(w, map[string]bool{"received": false}, http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]bool{"received": received}, http.StatusOK)
}

// HandleVerifyTokens - GET /api/v1/verify-tokens
// Amount-less treasury check: reports whether the treasury holding
// account is initialized and its raw balance.
func (s *Server) HandleVerifyTokens(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status, err := s.orchestrator.VerifyTokens(r.Context())
	if err != nil {
		log.Printf("🔴 treasury verification - %v", err)
		respondError(w, distributor.UserMessage(err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, status, http.StatusOK)
}

// RelayRequest - POST /api/v1/relay
type RelayRequest struct {
	SignedTransaction string `json:"signedTransaction"`
}

// RelayResponse returns the signature of the relayed payment, suitable
// for use as the solSignature of a later distribute call.
type RelayResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleRelay - POST /api/v1/relay
// Accepts a wallet-signed inbound payment transaction and submits it.
// The server never signs on this path.
func (s *Server) HandleRelay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SignedTransaction == "" {
		respondError(w, "signedTransaction is required", http.StatusBadRequest)
		return
	}

	tx, err := ledger.ParseSignedTransaction(req.SignedTransaction)
	if err != nil {
		respondJSON(w, RelayResponse{Error: err.Error()}, http.StatusBadRequest)
		return
	}
	sig, err := s.client.SendTransaction(r.Context(), tx)
	if err != nil {
		log.Printf("🔴 relay failed - %v", err)
		respondJSON(w, RelayResponse{Error: distributor.UserMessage(err)}, http.StatusInternalServerError)
		return
	}
	respondJSON(w, RelayResponse{Success: true, Signature: sig.String()}, http.StatusOK)
}

// HandleHistory - GET /api/v1/history?buyer=xxx&limit=10
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	buyer := r.URL.Query().Get("buyer")
	if buyer == "" {
		respondError(w, "buyer parameter required", http.StatusBadRequest)
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if limit > 100 {
		limit = 100
	}
	records, err := s.recorder.Recent(buyer, limit)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, records, http.StatusOK)
}

func (s *Server) record(req DistributeRequest, result distributor.DistributionResult) {
	status := history.StatusSettled
	if !result.Success {
		status = history.StatusFailed
	}
	err := s.recorder.Record(&history.Distribution{
		Buyer:            req.BuyerPubkey,
		Amount:           string(req.XynAmount),
		Signature:        result.Signature,
		PaymentSignature: req.SolSignature,
		Status:           status,
		ErrorKind:        result.ErrorKind,
		Details:          result.Details,
	})
	if err != nil {
		log.Printf("⚠️ failed to record distribution - %v", err)
	}
}

func statusForResult(result distributor.DistributionResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.ErrorKind {
	case distributor.KindInvalidInput,
		distributor.KindMissingPaymentProof,
		distributor.KindPaymentVerificationFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
