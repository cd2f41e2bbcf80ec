package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Config holds the connection parameters for a real cluster.
type Config struct {
	RPCURL  string
	Network string // mainnet, devnet, testnet
}

// RPC adapts *rpc.Client to the Client interface.
type RPC struct {
	http    *rpc.Client
	network string
}

// NewRPC - Initialize a Solana RPC adapter
func NewRPC(config Config) *RPC {
	if config.Network == "" {
		config.Network = "mainnet"
	}
	return &RPC{
		http:    rpc.New(config.RPCURL),
		network: config.Network,
	}
}

// HealthCheck verifies the endpoint is reachable.
func (c *RPC) HealthCheck() error {
	_, err := c.http.GetHealth(context.Background())
	return err
}

// ExplorerURL - Generate explorer URL for a signature
func (c *RPC) ExplorerURL(signature string) string {
	baseURL := "https://explorer.solana.com/tx/"
	switch c.network {
	case "devnet":
		return baseURL + signature + "?cluster=devnet"
	case "testnet":
		return baseURL + signature + "?cluster=testnet"
	default:
		return baseURL + signature
	}
}

func (c *RPC) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.http.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

func (c *RPC) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	accountInfo, err := c.http.GetAccountInfo(ctx, account)
	if err == rpc.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get account info: %w", err)
	}
	return accountInfo != nil && accountInfo.Value != nil, nil
}

func (c *RPC) TokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.http.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("no balance returned for %s", account)
	}
	amount, err := strconv.ParseUint(out.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance %q: %w", out.Value.Amount, err)
	}
	return amount, nil
}

func (c *RPC) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.http.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

func (c *RPC) SignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	status, err := c.http.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if status == nil || len(status.Value) == 0 || status.Value[0] == nil {
		return &SignatureStatus{}, nil
	}
	txStatus := status.Value[0]
	result := &SignatureStatus{
		Found:     true,
		Confirmed: txStatus.ConfirmationStatus == rpc.ConfirmationStatusConfirmed,
		Finalized: txStatus.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
	}
	if txStatus.Err != nil {
		result.TxErr = fmt.Sprintf("%v", txStatus.Err)
	}
	return result, nil
}

func (c *RPC) TransactionExists(ctx context.Context, sig solana.Signature) (bool, error) {
	// Without a version cap the node rejects versioned transactions,
	// and modern wallets submit version 0.
	maxVersion := uint64(0)
	result, err := c.http.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err == rpc.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get transaction: %w", err)
	}
	return result != nil, nil
}
