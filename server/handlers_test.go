package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"presale/distributor"
	"presale/history"
	"presale/ledger"
)

type testEnv struct {
	srv   *Server
	sim   *ledger.Simulator
	buyer solana.PublicKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	signer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()

	treasuryATA, err := distributor.HoldingAccount(signer.PublicKey(), mint)
	if err != nil {
		t.Fatalf("derive treasury holding account: %v", err)
	}
	buyerATA, err := distributor.HoldingAccount(buyer, mint)
	if err != nil {
		t.Fatalf("derive buyer holding account: %v", err)
	}

	sim := ledger.NewSimulator()
	sim.SetTokenBalance(treasuryATA, 1_000_000_000_000_000)
	sim.SetAccount(buyerATA)

	orch := distributor.NewDistributionOrchestrator(sim, distributor.Options{
		Signer:            signer,
		Mint:              mint,
		Decimals:          9,
		ProofPollAttempts: 1,
		ProofPollDelay:    time.Millisecond,
		MaxAttempts:       2,
		RetryDelay:        time.Millisecond,
		ConfirmAttempts:   2,
		ConfirmDelay:      time.Millisecond,
		MinReserve:        5_000_000,
	})

	return &testEnv{
		srv:   New(orch, sim, history.NewRecorder(nil)),
		sim:   sim,
		buyer: buyer,
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleDistribute(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.srv.HandleDistribute,
		`{"buyerPubkey":"`+env.buyer.String()+`","xynAmount":"100000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp DistributeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Signature == "" {
		t.Fatalf("response = %+v, want success with signature", resp)
	}
}

func TestHandleDistributeNumericAmount(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.srv.HandleDistribute,
		`{"buyerPubkey":"`+env.buyer.String()+`","xynAmount":2500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestHandleDistributeBadRequests(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"buyerPubkey":`},
		{"missing fields", `{}`},
		{"bad address", `{"buyerPubkey":"nope","xynAmount":"10"}`},
		{"bad amount", `{"buyerPubkey":"` + env.buyer.String() + `","xynAmount":"lots"}`},
	}
	for _, c := range cases {
		rec := postJSON(t, env.srv.HandleDistribute, c.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", c.name, rec.Code)
		}
	}
}

func TestHandleDistributeMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	env.srv.HandleDistribute(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleVerifyBalance(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.srv.HandleVerifyBalance, `{"amount":"100000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp distributor.BalanceResult
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Available {
		t.Fatalf("response = %+v, want available", resp)
	}

	rec = postJSON(t, env.srv.HandleVerifyBalance, `{"amount":"zero"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: status = %d, want 400", rec.Code)
	}
}

func TestHandleVerifyDistribution(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.srv.HandleVerifyDistribution,
		`{"buyerPubkey":"`+env.buyer.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["received"] {
		t.Error("expected received=true for seeded buyer holding account")
	}
}

func TestHandleVerifyTokens(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	env.srv.HandleVerifyTokens(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp distributor.TreasuryStatus
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Initialized {
		t.Error("expected an initialized treasury")
	}
	if resp.BaseUnits != 1_000_000_000_000_000 || resp.Balance != 1_000_000 {
		t.Errorf("balance = %d base units / %g, want the seeded treasury", resp.BaseUnits, resp.Balance)
	}

	post := httptest.NewRequest(http.MethodPost, "/", nil)
	rec = httptest.NewRecorder()
	env.srv.HandleVerifyTokens(rec, post)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST: status = %d, want 405", rec.Code)
	}
}

func TestHandleRelay(t *testing.T) {
	env := newTestEnv(t)

	payer := solana.NewWallet().PrivateKey
	source := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	env.sim.SetTokenBalance(source, 1_000)
	env.sim.SetAccount(dest)

	recent, err := env.sim.LatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("blockhash: %v", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			token.NewTransferInstruction(100, source, dest, payer.PublicKey(), nil).Build(),
		},
		recent,
		solana.TransactionPayer(payer.PublicKey()),
	)
	if err != nil {
		t.Fatalf("build transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if payer.PublicKey().Equals(key) {
			return &payer
		}
		return nil
	}); err != nil {
		t.Fatalf("sign transaction: %v", err)
	}
	encoded, err := tx.ToBase64()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec := postJSON(t, env.srv.HandleRelay, `{"signedTransaction":"`+encoded+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp RelayResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Signature == "" {
		t.Fatalf("response = %+v, want success with signature", resp)
	}
}

func TestHandleRelayRejectsUnsigned(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.srv.HandleRelay, `{"signedTransaction":"aGVsbG8="}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, env.srv.HandleRelay, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty payload: status = %d, want 400", rec.Code)
	}
}

func TestHandleHistoryWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/?buyer="+env.buyer.String(), nil)
	rec := httptest.NewRecorder()
	env.srv.HandleHistory(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 without a database", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	env.srv.HandleHistory(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing buyer: status = %d, want 400", rec.Code)
	}
}
