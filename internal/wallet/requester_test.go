package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"lor-chain/go-backend/internal/domains/contracts"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAgent struct {
	mu         sync.Mutex
	authorized []common.Address
	requests   []func() ([]common.Address, error)
	listErr    error

	listCalls    int
	requestCalls int
}

func (a *scriptedAgent) ListAuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport(err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	if a.listErr != nil {
		return nil, a.listErr
	}
	return append([]common.Address(nil), a.authorized...), nil
}

func (a *scriptedAgent) RequestAccounts(context.Context) ([]common.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestCalls++
	idx := a.requestCalls - 1
	if idx >= len(a.requests) {
		idx = len(a.requests) - 1
	}
	return a.requests[idx]()
}

func (a *scriptedAgent) CurrentNetworkID(context.Context) (*big.Int, error) {
	return big.NewInt(1337), nil
}

func (a *scriptedAgent) CreateSigner(context.Context) (contracts.Signer, error) {
	return nil, errors.New("not used")
}

func fastRequesterConfig() RequesterConfig {
	return RequesterConfig{
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
		PendingTimeout: 50 * time.Millisecond,
		PendingPoll:    5 * time.Millisecond,
	}
}

var accountA = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func grant() ([]common.Address, error) { return []common.Address{accountA}, nil }

func TestRequestAccountsUsesExistingAuthorization(t *testing.T) {
	agent := &scriptedAgent{authorized: []common.Address{accountA}}
	accounts, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.NoError(t, err)
	assert.Equal(t, []common.Address{accountA}, accounts)
	assert.Equal(t, 0, agent.requestCalls)
}

func TestRequestAccountsRetriesAfterPending(t *testing.T) {
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){
		func() ([]common.Address, error) { return nil, pending(errors.New("already pending")) },
		grant,
	}}
	accounts, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.NoError(t, err)
	assert.Equal(t, []common.Address{accountA}, accounts)
	assert.Equal(t, 2, agent.requestCalls)
}

func TestRequestAccountsStopsOnUserRejection(t *testing.T) {
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){
		func() ([]common.Address, error) { return nil, userRejected(errors.New("denied")) },
	}}
	_, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, 1, agent.requestCalls)
}

func TestRequestAccountsExhaustsTransportRetries(t *testing.T) {
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){
		func() ([]common.Address, error) { return nil, transport(errors.New("socket closed")) },
	}}
	_, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 3, agent.requestCalls)
}

func TestRequestAccountsPendingTimeout(t *testing.T) {
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){
		func() ([]common.Address, error) { return nil, pending(errors.New("already pending")) },
	}}
	cfg := fastRequesterConfig()
	cfg.MaxAttempts = 100
	cfg.PendingTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := NewRequester(cfg, nil).RequestAccounts(context.Background(), agent)

	require.ErrorIs(t, err, ErrPendingTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRequestAccountsPendingClearedWhileWaiting(t *testing.T) {
	agent := &scriptedAgent{}
	agent.requests = []func() ([]common.Address, error){
		func() ([]common.Address, error) {
			// The outstanding prompt is granted by the time the requester polls.
			agent.authorized = []common.Address{accountA}
			return nil, pending(errors.New("already pending"))
		},
	}
	accounts, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.NoError(t, err)
	assert.Equal(t, []common.Address{accountA}, accounts)
	assert.Equal(t, 1, agent.requestCalls)
}

func TestRequestAccountsEmptyResultIsTransport(t *testing.T) {
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){
		func() ([]common.Address, error) { return []common.Address{}, nil },
	}}
	_, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), agent)

	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, ErrNoAccounts)
}

func TestRequestAccountsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agent := &scriptedAgent{requests: []func() ([]common.Address, error){grant}}
	_, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(ctx, agent)

	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestAccountsNilAgent(t *testing.T) {
	_, err := NewRequester(fastRequesterConfig(), nil).RequestAccounts(context.Background(), nil)
	require.ErrorIs(t, err, ErrAgentUnavailable)
}

func TestRequesterConfigNormalized(t *testing.T) {
	cfg := RequesterConfig{RetryDelay: -time.Second}.normalized()
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.RetryDelay)
	assert.Equal(t, DefaultPendingTimeout, cfg.PendingTimeout)
	assert.Equal(t, DefaultPendingPoll, cfg.PendingPoll)
}
