package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lor-chain/go-backend/internal/composition/daemonserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "127.0.0.1:8787", "JSON-RPC listen address")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	dataDir := flag.String("data-dir", "", "Directory for keystore and ledger snapshot (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-LOR-RPC-Token (optional)")
	chainMode := flag.String("chain", "", "Chain mode override: simulated | rpc")
	flag.Parse()
	if *showVersion {
		fmt.Printf("lord version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *rpcToken != "" {
		_ = os.Setenv("LOR_RPC_TOKEN", *rpcToken)
	}
	if *chainMode != "" {
		_ = os.Setenv("LOR_CHAIN_MODE", *chainMode)
	}

	srv, err := daemonserver.NewRPCServerWithOptions(ctx, *rpcAddr, *configPath, *dataDir)
	if err != nil {
		log.Fatalf("lord failed to initialize: %v", err)
	}

	log.Println("lord starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("lord failed: %v", err)
	}
	log.Println("lord stopped")
}
