package model

import (
	"math/big"
	"time"

	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

type Phase string

const (
	PhaseDisconnected      Phase = "disconnected"
	PhaseConnecting        Phase = "connecting"
	PhaseAccountsRequested Phase = "accounts_requested"
	PhaseChainIdentified   Phase = "chain_identified"
	PhaseSessionCreated    Phase = "session_created"
	PhaseLedgerVerified    Phase = "ledger_verified"
	PhaseConnected         Phase = "connected"
	PhaseFailed            Phase = "failed"
)

// Phases lists every phase in connection order, failed last.
var Phases = []Phase{
	PhaseDisconnected,
	PhaseConnecting,
	PhaseAccountsRequested,
	PhaseChainIdentified,
	PhaseSessionCreated,
	PhaseLedgerVerified,
	PhaseConnected,
	PhaseFailed,
}

func (p Phase) Terminal() bool {
	return p == PhaseConnected || p == PhaseFailed
}

type Reason string

const (
	ReasonUnconfigured             Reason = "unconfigured"
	ReasonAgentUnavailable         Reason = "agent_unavailable"
	ReasonUserRejected             Reason = "user_rejected"
	ReasonPendingTimeout           Reason = "pending_timeout"
	ReasonTransport                Reason = "transport_error"
	ReasonProviderInitFailed       Reason = "provider_init_failed"
	ReasonLedgerNotFound           Reason = "ledger_not_found"
	ReasonLedgerVerificationFailed Reason = "ledger_verification_failed"
)

func (r Reason) Message() string {
	switch r {
	case ReasonUnconfigured:
		return "Ledger address is not configured."
	case ReasonAgentUnavailable:
		return "No signing agent is available."
	case ReasonUserRejected:
		return "Failed to connect wallet: User rejected request"
	case ReasonPendingTimeout:
		return "Connection request timeout - a wallet request is still pending"
	case ReasonProviderInitFailed:
		return "Failed to connect wallet: Provider creation failed"
	case ReasonLedgerNotFound:
		return "No ledger found at the configured address. Check the contract address and network."
	case ReasonLedgerVerificationFailed:
		return "Failed to connect to contract. Please check the contract address and network."
	}
	return "Connection failed: transport error"
}

type Failure struct {
	Reason Reason
	Detail string
}

type State struct {
	Phase           Phase
	AttemptInFlight bool
	LastError       *Failure
	Account         common.Address
	ChainID         *big.Int
	LedgerAddress   common.Address
	Attempts        int
	UpdatedAt       time.Time
}

func (s State) Connected() bool {
	return s.Phase == PhaseConnected
}

// Status renders the state for clients.
func (s State) Status() models.ConnectionStatus {
	status := models.ConnectionStatus{
		Phase:           string(s.Phase),
		AttemptInFlight: s.AttemptInFlight,
		Attempts:        s.Attempts,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Account != (common.Address{}) {
		status.Account = s.Account.Hex()
		status.AccountShort = models.ShortAddress(status.Account)
	}
	if s.ChainID != nil {
		status.ChainID = s.ChainID.String()
	}
	if s.LedgerAddress != (common.Address{}) {
		status.LedgerAddress = s.LedgerAddress.Hex()
	}
	if s.LastError != nil {
		message := s.LastError.Reason.Message()
		if s.LastError.Detail != "" {
			message += ": " + s.LastError.Detail
		}
		status.LastError = &models.ConnectionError{Reason: string(s.LastError.Reason), Message: message}
	}
	return status
}
