// Package config loads the service configuration once at startup and
// hands it out as an explicit struct. Business logic never reads the
// environment directly.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

const (
	MainNetwork = "mainnet"
	DevNetwork  = "devnet"
	TestNetwork = "testnet"
)

var (
	ErrorInvalidNetwork   = fmt.Errorf("network must be 'mainnet', 'devnet' or 'testnet'")
	ErrorNoSecretKey      = fmt.Errorf("no presale secret key is defined")
	ErrorInvalidSecretKey = fmt.Errorf("presale secret key must be a JSON array of 64 bytes")
	ErrorNoMint           = fmt.Errorf("no token mint address is defined")
	ErrorInvalidMint      = fmt.Errorf("invalid token mint address")
)

// Config carries everything the service needs. Constructed once in
// main and passed by reference; the custodial key never leaves the
// server process.
type Config struct {
	Port        string
	Network     string
	RPCEndpoint string
	DatabaseURL string

	Mint     solana.PublicKey
	Signer   solana.PrivateKey
	Decimals uint8

	RequireProof      bool
	ProofPollAttempts int
	ProofPollDelay    time.Duration

	MaxAttempts      int
	RetryDelay       time.Duration
	ConfirmAttempts  int
	ConfirmDelay     time.Duration
	ComputeUnitLimit uint32

	MinReserve uint64

	// Simulate swaps the RPC client for the in-memory simulator. An
	// ephemeral signer is generated when none is configured.
	Simulate bool
}

// Load reads the optional config file, environment variables and
// defaults, in that order of precedence.
func Load(filePath string) (*Config, error) {
	v := viper.New()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("⚠️ Failed reading config file: %v\n", err.Error())
		}
	}
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:              v.GetString("port"),
		Network:           strings.TrimSpace(strings.ToLower(v.GetString("network"))),
		RPCEndpoint:       v.GetString("rpc_endpoint"),
		DatabaseURL:       v.GetString("database_url"),
		Decimals:          uint8(v.GetUint("decimals")),
		RequireProof:      v.GetBool("require_proof"),
		ProofPollAttempts: v.GetInt("proof_poll_attempts"),
		ProofPollDelay:    v.GetDuration("proof_poll_delay"),
		MaxAttempts:       v.GetInt("max_attempts"),
		RetryDelay:        v.GetDuration("retry_delay"),
		ConfirmAttempts:   v.GetInt("confirm_attempts"),
		ConfirmDelay:      v.GetDuration("confirm_delay"),
		ComputeUnitLimit:  v.GetUint32("compute_unit_limit"),
		MinReserve:        v.GetUint64("min_reserve"),
		Simulate:          v.GetBool("simulate"),
	}

	switch cfg.Network {
	case MainNetwork, DevNetwork, TestNetwork:
	default:
		return nil, ErrorInvalidNetwork
	}

	if cfg.RPCEndpoint == "" {
		cfg.RPCEndpoint = defaultEndpoint(cfg.Network)
	}

	signer, err := parseSecretKey(v.GetString("presale_secret_key"), cfg.Simulate)
	if err != nil {
		return nil, err
	}
	cfg.Signer = signer

	mintAddress := strings.TrimSpace(v.GetString("mint_address"))
	if mintAddress == "" {
		if !cfg.Simulate {
			return nil, ErrorNoMint
		}
		cfg.Mint = solana.NewWallet().PublicKey()
	} else {
		mint, err := solana.PublicKeyFromBase58(mintAddress)
		if err != nil {
			return nil, ErrorInvalidMint
		}
		cfg.Mint = mint
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("network", DevNetwork)
	v.SetDefault("decimals", 9)
	v.SetDefault("proof_poll_attempts", 3)
	v.SetDefault("proof_poll_delay", "2s")
	v.SetDefault("max_attempts", 5)
	v.SetDefault("retry_delay", "2s")
	v.SetDefault("confirm_attempts", 15)
	v.SetDefault("confirm_delay", "2s")
	v.SetDefault("compute_unit_limit", 200_000)
	v.SetDefault("min_reserve", 5_000_000)
}

func defaultEndpoint(network string) string {
	switch network {
	case MainNetwork:
		return "https://api.mainnet-beta.solana.com"
	case TestNetwork:
		return "https://api.testnet.solana.com"
	default:
		return "https://api.devnet.solana.com"
	}
}

// parseSecretKey accepts the key as a JSON array of secret bytes, e.g.
// PRESALE_SECRET_KEY="[57,212,99,...]".
func parseSecretKey(raw string, simulate bool) (solana.PrivateKey, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "'", "\""))
	if raw == "" {
		if simulate {
			key, err := solana.NewRandomPrivateKey()
			if err != nil {
				return nil, err
			}
			return key, nil
		}
		return nil, ErrorNoSecretKey
	}

	var secretBytes []int
	if err := json.Unmarshal([]byte(raw), &secretBytes); err != nil {
		return nil, ErrorInvalidSecretKey
	}
	if len(secretBytes) != 64 {
		return nil, ErrorInvalidSecretKey
	}
	key := make(solana.PrivateKey, len(secretBytes))
	for i, b := range secretBytes {
		if b < 0 || b > 255 {
			return nil, ErrorInvalidSecretKey
		}
		key[i] = byte(b)
	}
	return key, nil
}
