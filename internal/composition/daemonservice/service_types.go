package daemonservice

import (
	"log/slog"

	"lor-chain/go-backend/internal/bootstrap/daemonconfig"
	"lor-chain/go-backend/internal/domains/connection"
	"lor-chain/go-backend/internal/domains/ledger"
	runtimeapp "lor-chain/go-backend/internal/platform/runtime"
	"lor-chain/go-backend/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
)

// Service is the daemon facade: the connection orchestrator, the local
// wallet prompt and the ledger client behind one transport-neutral API.
type Service struct {
	cfg    daemonconfig.Config
	logger *slog.Logger

	runtime       *runtimeapp.ServiceRuntime
	notifications *runtimeapp.NotificationHub
	orchestrator  *connection.Orchestrator
	ledgerClient  *ledger.Client
	prompts       *wallet.PromptBroker
	ledgerAddress common.Address
	closers       []func()
}
