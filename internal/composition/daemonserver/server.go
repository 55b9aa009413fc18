package daemonserver

import (
	"context"

	"lor-chain/go-backend/internal/adapters/rpc"
	"lor-chain/go-backend/internal/composition/daemon/servicefactory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRPCServerWithOptions wires daemon service and RPC transport.
func NewRPCServerWithOptions(ctx context.Context, rpcAddr, configPath, dataDir string) (*rpc.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc, err := servicefactory.BuildDaemonService(ctx, configPath, dataDir, reg)
	if err != nil {
		return nil, err
	}
	return rpc.NewServerWithService(rpcAddr, svc, rpc.WithRegistry(reg)), nil
}
