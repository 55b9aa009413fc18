package usecase

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lor-chain/go-backend/internal/chain/simchain"
	"lor-chain/go-backend/internal/domains/connection/model"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/domains/ledger"
	"lor-chain/go-backend/internal/domains/ledger/policy"
	"lor-chain/go-backend/internal/wallet"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	signer    *wallet.KeySigner
	chainErr  error
	signerErr error
	gate      chan struct{}
	entered   chan struct{}
	requests  atomic.Int32
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &fakeAgent{signer: wallet.NewKeySigner(key)}
}

func (a *fakeAgent) ListAuthorizedAccounts(context.Context) ([]common.Address, error) {
	return nil, nil
}

func (a *fakeAgent) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	a.requests.Add(1)
	if a.entered != nil {
		select {
		case a.entered <- struct{}{}:
		default:
		}
	}
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []common.Address{a.signer.Address()}, nil
}

func (a *fakeAgent) CurrentNetworkID(context.Context) (*big.Int, error) {
	if a.chainErr != nil {
		return nil, a.chainErr
	}
	return big.NewInt(simchain.DefaultChainID), nil
}

func (a *fakeAgent) CreateSigner(context.Context) (contracts.Signer, error) {
	if a.signerErr != nil {
		return nil, a.signerErr
	}
	return a.signer, nil
}

type recorder struct {
	mu       sync.Mutex
	statuses []models.ConnectionStatus
}

func (r *recorder) notify(status models.ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) phases() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.statuses))
	for _, status := range r.statuses {
		out = append(out, status.Phase)
	}
	return out
}

type harness struct {
	node     *simchain.Node
	address  common.Address
	agent    *fakeAgent
	recorder *recorder
	metrics  *Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	agent := newFakeAgent(t)
	node := simchain.NewNode(nil, nil)
	address := node.Deploy(agent.signer.Address(), ledger.New(policy.NewApprovers(agent.signer.Address())))
	return &harness{
		node:     node,
		address:  address,
		agent:    agent,
		recorder: &recorder{},
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
}

func (h *harness) orchestrator(provider contracts.Provider, ledgerAddress string) *Orchestrator {
	return NewOrchestrator(Deps{
		Agent:         h.agent,
		Provider:      provider,
		Requester:     wallet.NewRequester(wallet.RequesterConfig{MaxAttempts: 1, RetryDelay: time.Millisecond}, nil),
		LedgerAddress: ledgerAddress,
		Notify:        h.recorder.notify,
		Metrics:       h.metrics,
	})
}

func TestConnectReachesConnected(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(h.node, h.address.Hex())

	state, started := o.Connect(context.Background())
	require.True(t, started)
	assert.Equal(t, model.PhaseConnected, state.Phase)
	assert.False(t, state.AttemptInFlight)
	assert.Equal(t, h.agent.signer.Address(), state.Account)
	assert.Equal(t, int64(simchain.DefaultChainID), state.ChainID.Int64())

	session, ok := o.Session()
	require.True(t, ok)
	assert.Equal(t, h.address, session.Ledger.Address())
	assert.Equal(t, []string{
		"connecting", "connecting", "accounts_requested", "chain_identified",
		"session_created", "ledger_verified", "connected",
	}, h.recorder.phases())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.attempts.WithLabelValues("connected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.phase.WithLabelValues("connected")))
}

func TestConcurrentTriggersStartOneAttempt(t *testing.T) {
	h := newHarness(t)
	h.agent.gate = make(chan struct{})
	o := h.orchestrator(h.node, h.address.Hex())

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.Trigger(context.Background()) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	_, again := o.Connect(context.Background())
	assert.False(t, again)

	close(h.agent.gate)
	o.Wait()
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), h.agent.requests.Load())
	assert.Equal(t, model.PhaseConnected, o.State().Phase)
}

func TestMissingLedgerCodeFails(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(h.node, "0x00000000000000000000000000000000000000ff")

	state, _ := o.Connect(context.Background())
	assert.Equal(t, model.PhaseFailed, state.Phase)
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonLedgerNotFound, state.LastError.Reason)
	_, ok := o.Session()
	assert.False(t, ok)
}

func TestUnconfiguredLedgerAddress(t *testing.T) {
	for _, address := range []string{"", "not-an-address", "0x0000000000000000000000000000000000000000"} {
		h := newHarness(t)
		state, _ := h.orchestrator(h.node, address).Connect(context.Background())
		require.NotNil(t, state.LastError, address)
		assert.Equal(t, model.ReasonUnconfigured, state.LastError.Reason, address)
		assert.Equal(t, int32(0), h.agent.requests.Load(), address)
	}
}

func TestMissingAgent(t *testing.T) {
	h := newHarness(t)
	o := NewOrchestrator(Deps{Provider: h.node, LedgerAddress: h.address.Hex()})
	state, _ := o.Connect(context.Background())
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonAgentUnavailable, state.LastError.Reason)
}

func TestUserRejectionMapsToReason(t *testing.T) {
	h := newHarness(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	agent := wallet.NewLocalAgent(wallet.NewKeySigner(key), big.NewInt(simchain.DefaultChainID),
		wallet.ApproverFunc(func(context.Context, common.Address) (bool, error) { return false, nil }))
	o := NewOrchestrator(Deps{Agent: agent, Provider: h.node, LedgerAddress: h.address.Hex()})

	state, _ := o.Connect(context.Background())
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonUserRejected, state.LastError.Reason)
	assert.Equal(t, "user_rejected", state.Status().LastError.Reason)
}

// failingAgent never has authorized accounts and fails every interactive
// request with err.
type failingAgent struct {
	err      error
	requests atomic.Int32
}

func (a *failingAgent) ListAuthorizedAccounts(context.Context) ([]common.Address, error) {
	return nil, nil
}

func (a *failingAgent) RequestAccounts(context.Context) ([]common.Address, error) {
	a.requests.Add(1)
	return nil, a.err
}

func (a *failingAgent) CurrentNetworkID(context.Context) (*big.Int, error) {
	return big.NewInt(simchain.DefaultChainID), nil
}

func (a *failingAgent) CreateSigner(context.Context) (contracts.Signer, error) {
	return nil, errors.New("no signer without accounts")
}

func TestRequesterFailuresMapToReasons(t *testing.T) {
	cfg := wallet.RequesterConfig{
		MaxAttempts:    2,
		RetryDelay:     time.Millisecond,
		PendingTimeout: 20 * time.Millisecond,
		PendingPoll:    5 * time.Millisecond,
	}
	tests := []struct {
		name         string
		agentErr     error
		wantReason   model.Reason
		wantRequests int32
	}{
		{
			name:         "user rejection",
			agentErr:     &wallet.AgentError{Tag: wallet.TagUserRejected, Code: wallet.CodeUserRejected, Err: errors.New("denied")},
			wantReason:   model.ReasonUserRejected,
			wantRequests: 1,
		},
		{
			name:       "pending never clears",
			agentErr:   &wallet.AgentError{Tag: wallet.TagPending, Code: wallet.CodeRequestPending, Err: errors.New("already pending")},
			wantReason: model.ReasonPendingTimeout,
		},
		{
			name:         "transport failure",
			agentErr:     errors.New("dial tcp 127.0.0.1:8545: connection refused"),
			wantReason:   model.ReasonTransport,
			wantRequests: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			agent := &failingAgent{err: tt.agentErr}
			o := NewOrchestrator(Deps{
				Agent:         agent,
				Provider:      h.node,
				Requester:     wallet.NewRequester(cfg, nil),
				LedgerAddress: h.address.Hex(),
			})

			state, started := o.Connect(context.Background())
			require.True(t, started)
			assert.Equal(t, model.PhaseFailed, state.Phase)
			require.NotNil(t, state.LastError)
			assert.Equal(t, tt.wantReason, state.LastError.Reason)
			assert.False(t, state.AttemptInFlight)
			requests := agent.requests.Load()
			assert.LessOrEqual(t, requests, int32(cfg.MaxAttempts))
			if tt.wantRequests > 0 {
				assert.Equal(t, tt.wantRequests, requests)
			}
			_, ok := o.Session()
			assert.False(t, ok)
		})
	}
}

func TestChainIDFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.agent.chainErr = errors.New("eth_chainId unsupported")
	state, _ := h.orchestrator(h.node, h.address.Hex()).Connect(context.Background())
	assert.Equal(t, model.PhaseConnected, state.Phase)
	assert.Nil(t, state.ChainID)
}

func TestSignerFailureIsProviderInit(t *testing.T) {
	h := newHarness(t)
	h.agent.signerErr = errors.New("signer unavailable")
	state, _ := h.orchestrator(h.node, h.address.Hex()).Connect(context.Background())
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonProviderInitFailed, state.LastError.Reason)
	assert.Contains(t, state.Status().LastError.Message, "signer unavailable")
}

type brokenCodeProvider struct {
	*simchain.Node
}

func (brokenCodeProvider) CodeAt(context.Context, common.Address) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestCodeLookupFailure(t *testing.T) {
	h := newHarness(t)
	state, _ := h.orchestrator(brokenCodeProvider{h.node}, h.address.Hex()).Connect(context.Background())
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonLedgerVerificationFailed, state.LastError.Reason)
}

func TestFailedStateRequiresReset(t *testing.T) {
	h := newHarness(t)
	o := h.orchestrator(h.node, "0x00000000000000000000000000000000000000ff")
	_, started := o.Connect(context.Background())
	require.True(t, started)

	state, started := o.Connect(context.Background())
	assert.False(t, started)
	assert.Equal(t, model.PhaseFailed, state.Phase)
	assert.Equal(t, int32(1), h.agent.requests.Load())

	require.True(t, o.Retry(context.Background()))
	o.Wait()
	assert.Equal(t, 2, o.State().Attempts)
	assert.Equal(t, int32(2), h.agent.requests.Load())
}

func TestTriggerContextCancelEndsAttempt(t *testing.T) {
	h := newHarness(t)
	h.agent.gate = make(chan struct{})
	h.agent.entered = make(chan struct{}, 1)
	defer close(h.agent.gate)
	o := h.orchestrator(h.node, h.address.Hex())

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, o.Trigger(ctx))
	<-h.agent.entered
	cancel()

	done := make(chan struct{})
	go func() {
		o.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("attempt kept running after its context was cancelled")
	}

	state := o.State()
	assert.Equal(t, model.PhaseFailed, state.Phase)
	require.NotNil(t, state.LastError)
	assert.Equal(t, model.ReasonTransport, state.LastError.Reason)
	assert.False(t, state.AttemptInFlight)
}

func TestResetDiscardsLateResult(t *testing.T) {
	h := newHarness(t)
	h.agent.gate = make(chan struct{})
	h.agent.entered = make(chan struct{}, 1)
	o := h.orchestrator(h.node, h.address.Hex())

	require.True(t, o.Trigger(context.Background()))
	<-h.agent.entered
	o.Reset()
	close(h.agent.gate)
	o.Wait()

	state := o.State()
	assert.Equal(t, model.PhaseDisconnected, state.Phase)
	assert.False(t, state.AttemptInFlight)
	assert.Equal(t, common.Address{}, state.Account)
	_, ok := o.Session()
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.attempts.WithLabelValues("discarded")))
}
