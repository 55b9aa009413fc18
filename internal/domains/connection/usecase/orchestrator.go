// Package usecase runs connection attempts against the signing agent and the
// ledger target.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"lor-chain/go-backend/internal/domains/connection/model"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/wallet"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

type AccountRequester interface {
	RequestAccounts(ctx context.Context, agent wallet.Agent) ([]common.Address, error)
}

type Deps struct {
	Agent         wallet.Agent
	Provider      contracts.Provider
	Requester     AccountRequester
	LedgerAddress string
	Notify        func(models.ConnectionStatus)
	Metrics       *Metrics
	Logger        *slog.Logger
}

// Orchestrator owns the connection state and the session. At most one
// attempt runs at a time; results of an attempt abandoned by Reset are
// dropped.
type Orchestrator struct {
	mu      sync.Mutex
	state   model.State
	session *contracts.Session
	epoch   uint64

	agent         wallet.Agent
	provider      contracts.Provider
	requester     AccountRequester
	ledgerAddress string
	notify        func(models.ConnectionStatus)
	metrics       *Metrics
	logger        *slog.Logger
	now           func() time.Time
	background    sync.WaitGroup
}

func NewOrchestrator(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	requester := deps.Requester
	if requester == nil {
		requester = wallet.NewRequester(wallet.DefaultRequesterConfig(), logger)
	}
	o := &Orchestrator{
		agent:         deps.Agent,
		provider:      deps.Provider,
		requester:     requester,
		ledgerAddress: strings.TrimSpace(deps.LedgerAddress),
		notify:        deps.Notify,
		metrics:       deps.Metrics,
		logger:        logger,
		now:           time.Now,
	}
	o.state = model.State{Phase: model.PhaseDisconnected, UpdatedAt: o.now().UTC()}
	o.metrics.setPhase(model.PhaseDisconnected)
	return o
}

// Connect runs one attempt synchronously. When the entry guard refuses the
// call, the current state is returned with started=false.
func (o *Orchestrator) Connect(ctx context.Context) (model.State, bool) {
	epoch, state, ok := o.begin()
	if !ok {
		return state, false
	}
	return o.run(ctx, epoch), true
}

// Trigger starts an attempt in the background and reports whether one was
// started. Concurrent triggers collapse into a single attempt. The attempt
// runs on ctx, so callers pass a context that outlives the triggering request;
// cancelling it fails the attempt with a transport error.
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	epoch, _, ok := o.begin()
	if !ok {
		return false
	}
	o.background.Add(1)
	go func() {
		defer o.background.Done()
		o.run(ctx, epoch)
	}()
	return true
}

// Retry resets the orchestrator and triggers a fresh attempt.
func (o *Orchestrator) Retry(ctx context.Context) bool {
	o.Reset()
	return o.Trigger(ctx)
}

// Reset abandons any attempt in flight and returns to disconnected.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.epoch++
	o.session = nil
	o.state = model.State{
		Phase:     model.PhaseDisconnected,
		Attempts:  o.state.Attempts,
		UpdatedAt: o.now().UTC(),
	}
	status := o.state.Status()
	o.mu.Unlock()
	o.logger.Info("connection reset")
	o.publish(model.PhaseDisconnected, status)
}

// Wait blocks until background attempts started by Trigger return.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

func (o *Orchestrator) State() model.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := o.state
	if state.ChainID != nil {
		state.ChainID = new(big.Int).Set(state.ChainID)
	}
	if state.LastError != nil {
		failure := *state.LastError
		state.LastError = &failure
	}
	return state
}

func (o *Orchestrator) Status() models.ConnectionStatus {
	return o.State().Status()
}

// Session returns the session of a completed attempt.
func (o *Orchestrator) Session() (*contracts.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Phase != model.PhaseConnected || o.session == nil {
		return nil, false
	}
	return o.session, true
}

func (o *Orchestrator) begin() (uint64, model.State, bool) {
	o.mu.Lock()
	if o.state.Phase != model.PhaseDisconnected || o.state.AttemptInFlight {
		state := o.state
		o.mu.Unlock()
		return 0, state, false
	}
	o.epoch++
	o.session = nil
	o.state = model.State{
		Phase:           model.PhaseConnecting,
		AttemptInFlight: true,
		Attempts:        o.state.Attempts + 1,
		UpdatedAt:       o.now().UTC(),
	}
	epoch, state := o.epoch, o.state
	status := state.Status()
	o.mu.Unlock()

	o.logger.Info("connection attempt started", "attempt", state.Attempts)
	o.publish(model.PhaseConnecting, status)
	return epoch, state, true
}

func (o *Orchestrator) run(ctx context.Context, epoch uint64) model.State {
	address, ok := parseLedgerAddress(o.ledgerAddress)
	if !ok {
		return o.fail(epoch, model.ReasonUnconfigured, nil)
	}
	if !o.advance(epoch, model.PhaseConnecting, func(s *model.State) { s.LedgerAddress = address }) {
		return o.State()
	}
	if o.agent == nil {
		return o.fail(epoch, model.ReasonAgentUnavailable, nil)
	}

	accounts, err := o.requester.RequestAccounts(ctx, o.agent)
	if err != nil {
		return o.fail(epoch, requesterReason(err), err)
	}
	if len(accounts) == 0 {
		return o.fail(epoch, model.ReasonTransport, wallet.ErrNoAccounts)
	}
	account := accounts[0]
	if !o.advance(epoch, model.PhaseAccountsRequested, func(s *model.State) { s.Account = account }) {
		return o.State()
	}

	chainID, err := o.agent.CurrentNetworkID(ctx)
	if err != nil {
		o.logger.Warn("chain id lookup failed", "error", err)
		chainID = nil
	}
	if !o.advance(epoch, model.PhaseChainIdentified, func(s *model.State) { s.ChainID = chainID }) {
		return o.State()
	}

	session, err := o.createSession(ctx, account, address)
	if err != nil {
		return o.fail(epoch, model.ReasonProviderInitFailed, err)
	}
	if !o.advance(epoch, model.PhaseSessionCreated, nil) {
		return o.State()
	}

	code, err := o.provider.CodeAt(ctx, address)
	if err != nil {
		return o.fail(epoch, model.ReasonLedgerVerificationFailed, err)
	}
	if len(code) == 0 {
		return o.fail(epoch, model.ReasonLedgerNotFound, nil)
	}
	if !o.advance(epoch, model.PhaseLedgerVerified, nil) {
		return o.State()
	}
	return o.commit(epoch, session)
}

func (o *Orchestrator) createSession(ctx context.Context, account, address common.Address) (*contracts.Session, error) {
	if o.provider == nil {
		return nil, errors.New("ledger provider is not configured")
	}
	signer, err := o.agent.CreateSigner(ctx)
	if err != nil {
		return nil, err
	}
	handle, err := o.provider.Bind(address, signer)
	if err != nil {
		return nil, err
	}
	return &contracts.Session{Account: account, Signer: signer, Ledger: handle}, nil
}

// advance moves the current attempt to phase. It returns false when the
// attempt was abandoned.
func (o *Orchestrator) advance(epoch uint64, phase model.Phase, apply func(*model.State)) bool {
	o.mu.Lock()
	if epoch != o.epoch || !o.state.AttemptInFlight {
		o.mu.Unlock()
		o.metrics.attemptFinished("discarded")
		return false
	}
	o.state.Phase = phase
	if apply != nil {
		apply(&o.state)
	}
	o.state.UpdatedAt = o.now().UTC()
	status := o.state.Status()
	o.mu.Unlock()

	o.logger.Debug("connection phase changed", "phase", string(phase))
	o.publish(phase, status)
	return true
}

func (o *Orchestrator) fail(epoch uint64, reason model.Reason, cause error) model.State {
	o.mu.Lock()
	if epoch != o.epoch || !o.state.AttemptInFlight {
		o.mu.Unlock()
		o.metrics.attemptFinished("discarded")
		return o.State()
	}
	failure := &model.Failure{Reason: reason}
	if cause != nil {
		failure.Detail = cause.Error()
	}
	o.session = nil
	o.state.Phase = model.PhaseFailed
	o.state.AttemptInFlight = false
	o.state.LastError = failure
	o.state.UpdatedAt = o.now().UTC()
	status := o.state.Status()
	o.mu.Unlock()

	o.logger.Warn("connection attempt failed", "reason", string(reason), "error", cause)
	o.metrics.attemptFinished(string(reason))
	o.publish(model.PhaseFailed, status)
	return o.State()
}

func (o *Orchestrator) commit(epoch uint64, session *contracts.Session) model.State {
	o.mu.Lock()
	if epoch != o.epoch || !o.state.AttemptInFlight {
		o.mu.Unlock()
		o.metrics.attemptFinished("discarded")
		return o.State()
	}
	o.session = session
	o.state.Phase = model.PhaseConnected
	o.state.AttemptInFlight = false
	o.state.LastError = nil
	o.state.UpdatedAt = o.now().UTC()
	status := o.state.Status()
	o.mu.Unlock()

	o.logger.Info("connection established", "account", session.Account.Hex(), "ledger", session.Ledger.Address().Hex())
	o.metrics.attemptFinished("connected")
	o.publish(model.PhaseConnected, status)
	return o.State()
}

func (o *Orchestrator) publish(phase model.Phase, status models.ConnectionStatus) {
	o.metrics.setPhase(phase)
	if o.notify != nil {
		o.notify(status)
	}
}

func parseLedgerAddress(raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	address := common.HexToAddress(raw)
	return address, address != (common.Address{})
}

func requesterReason(err error) model.Reason {
	switch {
	case errors.Is(err, wallet.ErrUserRejected):
		return model.ReasonUserRejected
	case errors.Is(err, wallet.ErrPendingTimeout):
		return model.ReasonPendingTimeout
	case errors.Is(err, wallet.ErrAgentUnavailable):
		return model.ReasonAgentUnavailable
	}
	return model.ReasonTransport
}
