package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"lor-chain/go-backend/internal/domains/contracts"

	"github.com/ethereum/go-ethereum/common"
)

// Approver decides an interactive account request. Returning false rejects it.
type Approver interface {
	Approve(ctx context.Context, account common.Address) (bool, error)
}

type ApproverFunc func(ctx context.Context, account common.Address) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, account common.Address) (bool, error) {
	return f(ctx, account)
}

var AutoApprove = ApproverFunc(func(context.Context, common.Address) (bool, error) {
	return true, nil
})

// LocalAgent is a single-account signing agent backed by a local key. Only
// one interactive request may be outstanding; a second one is reported as
// already pending.
type LocalAgent struct {
	mu         sync.Mutex
	signer     *KeySigner
	chainID    *big.Int
	approver   Approver
	authorized bool
	prompting  bool
}

func NewLocalAgent(signer *KeySigner, chainID *big.Int, approver Approver) *LocalAgent {
	if approver == nil {
		approver = AutoApprove
	}
	return &LocalAgent{
		signer:   signer,
		chainID:  new(big.Int).Set(chainID),
		approver: approver,
	}
}

func NewLocalAgentFromMnemonic(mnemonic, passphrase string, chainID *big.Int, approver Approver) (*LocalAgent, error) {
	key, err := DeriveKey(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewLocalAgent(NewKeySigner(key), chainID, approver), nil
}

func (a *LocalAgent) Address() common.Address {
	return a.signer.Address()
}

func (a *LocalAgent) ListAuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport(err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authorized {
		return []common.Address{}, nil
	}
	return []common.Address{a.signer.Address()}, nil
}

func (a *LocalAgent) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	a.mu.Lock()
	if a.authorized {
		a.mu.Unlock()
		return []common.Address{a.signer.Address()}, nil
	}
	if a.prompting {
		a.mu.Unlock()
		return nil, pending(errors.New("request of type 'wallet_requestPermissions' already pending"))
	}
	a.prompting = true
	a.mu.Unlock()

	approved, err := a.approver.Approve(ctx, a.signer.Address())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompting = false
	if err != nil {
		return nil, transport(err)
	}
	if !approved {
		return nil, userRejected(errors.New("user rejected the request"))
	}
	a.authorized = true
	return []common.Address{a.signer.Address()}, nil
}

// Revoke drops the authorization so the next request prompts again.
func (a *LocalAgent) Revoke() {
	a.mu.Lock()
	a.authorized = false
	a.mu.Unlock()
}

func (a *LocalAgent) CurrentNetworkID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport(err)
	}
	return new(big.Int).Set(a.chainID), nil
}

func (a *LocalAgent) CreateSigner(ctx context.Context) (contracts.Signer, error) {
	if err := ctx.Err(); err != nil {
		return nil, transport(err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authorized {
		return nil, &AgentError{Tag: TagTransport, Code: CodeUnauthorized, Err: ErrNotAuthorized}
	}
	return a.signer, nil
}
