package connection

import (
	"lor-chain/go-backend/internal/domains/connection/model"
	connectiontransport "lor-chain/go-backend/internal/domains/connection/transport"
	connectionusecase "lor-chain/go-backend/internal/domains/connection/usecase"
)

type Orchestrator = connectionusecase.Orchestrator
type Deps = connectionusecase.Deps
type Metrics = connectionusecase.Metrics
type State = model.State
type Phase = model.Phase

const (
	PhaseDisconnected = model.PhaseDisconnected
	PhaseConnected    = model.PhaseConnected
	PhaseFailed       = model.PhaseFailed

	NotificationConnection   = connectiontransport.NotificationConnection
	NotificationWalletPrompt = connectiontransport.NotificationWalletPrompt
)

var (
	NewOrchestrator = connectionusecase.NewOrchestrator
	NewMetrics      = connectionusecase.NewMetrics
)
