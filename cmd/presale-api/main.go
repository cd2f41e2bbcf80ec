package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"presale/config"
	"presale/distributor"
	"presale/exporter"
	"presale/history"
	"presale/ledger"
	"presale/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config load failed: %v", err)
	}

	var client ledger.Client
	if cfg.Simulate {
		sim := ledger.NewSimulator()
		treasury, err := distributor.HoldingAccount(cfg.Signer.PublicKey(), cfg.Mint)
		if err != nil {
			log.Fatalf("❌ Treasury derivation failed: %v", err)
		}
		sim.SetAccount(treasury)
		sim.SetTokenBalance(treasury, 1_000_000_000*1_000_000_000)
		client = sim
		log.Printf("⚠️ Running in simulation mode, no transactions reach %s", cfg.Network)
	} else {
		rpcClient := ledger.NewRPC(ledger.Config{
			RPCURL:  cfg.RPCEndpoint,
			Network: cfg.Network,
		})
		if err := rpcClient.HealthCheck(); err != nil {
			log.Fatalf("❌ RPC health check failed: %v", err)
		}
		client = rpcClient
	}

	exporter.Init()

	var recorder *history.Recorder
	if cfg.DatabaseURL != "" {
		db, err := history.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Database connection failed: %v", err)
		}
		recorder = history.NewRecorder(db)
		log.Printf("✅ Distribution history enabled")
	} else {
		recorder = history.NewRecorder(nil)
		log.Printf("⚠️ No database configured, history disabled")
	}

	orchestrator := distributor.NewDistributionOrchestrator(client, distributor.Options{
		Signer:            cfg.Signer,
		Mint:              cfg.Mint,
		Decimals:          cfg.Decimals,
		RequireProof:      cfg.RequireProof,
		ProofPollAttempts: cfg.ProofPollAttempts,
		ProofPollDelay:    cfg.ProofPollDelay,
		MaxAttempts:       cfg.MaxAttempts,
		RetryDelay:        cfg.RetryDelay,
		ComputeUnitLimit:  cfg.ComputeUnitLimit,
		ConfirmAttempts:   cfg.ConfirmAttempts,
		ConfirmDelay:      cfg.ConfirmDelay,
		MinReserve:        cfg.MinReserve,
	})

	srv := server.New(orchestrator, client, recorder)

	http.HandleFunc("/api/v1/distribute", srv.HandleDistribute)
	http.HandleFunc("/api/v1/verify-balance", srv.HandleVerifyBalance)
	http.HandleFunc("/api/v1/verify-distribution", srv.HandleVerifyDistribution)
	http.HandleFunc("/api/v1/verify-tokens", srv.HandleVerifyTokens)
	http.HandleFunc("/api/v1/relay", srv.HandleRelay)
	http.HandleFunc("/api/v1/history", srv.HandleHistory)

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("🚀 Presale API starting on port %s", cfg.Port)
	log.Printf("✅ Network: %s (%s)", cfg.Network, cfg.RPCEndpoint)
	log.Printf("✅ Token mint: %s", cfg.Mint)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatal(err)
	}
}
