package servicefactory

import (
	"context"
	"log/slog"
	"os"

	"lor-chain/go-backend/internal/bootstrap/daemonconfig"
	"lor-chain/go-backend/internal/composition/daemon"
	"lor-chain/go-backend/internal/composition/daemonservice"
	"lor-chain/go-backend/internal/domains/contracts"
	runtimeapp "lor-chain/go-backend/internal/platform/runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildDaemonService composes daemon-ready service from config path and data dir.
func BuildDaemonService(ctx context.Context, configPath, dataDir string, reg prometheus.Registerer) (contracts.DaemonService, error) {
	cfg, err := daemonconfig.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	resolvedDir, secret, err := daemon.ResolveStorage(dataDir, cfg.KeystoreFile, cfg.LedgerStateFile)
	if err != nil {
		return nil, err
	}
	logger := runtimeapp.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	return daemonservice.NewService(ctx, daemonservice.Options{
		Config:        cfg,
		DataDir:       resolvedDir,
		StorageSecret: secret,
		Registry:      reg,
		Logger:        logger,
	})
}
