package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	ErrPromptNotFound = errors.New("wallet prompt not found")
	ErrPromptBusy     = errors.New("another wallet prompt is outstanding")
)

// PromptBroker is an Approver that parks account requests until an operator
// resolves them through Resolve.
type PromptBroker struct {
	mu      sync.Mutex
	current *walletPrompt
	now     func() time.Time
	onOpen  func(models.WalletPrompt)
}

type walletPrompt struct {
	info     models.WalletPrompt
	decision chan bool
}

func NewPromptBroker(onOpen func(models.WalletPrompt)) *PromptBroker {
	return &PromptBroker{now: time.Now, onOpen: onOpen}
}

func (b *PromptBroker) Approve(ctx context.Context, account common.Address) (bool, error) {
	p := &walletPrompt{
		info: models.WalletPrompt{
			ID:        "prompt_" + uuid.NewString(),
			Account:   account.Hex(),
			CreatedAt: b.now().UTC(),
		},
		decision: make(chan bool, 1),
	}
	b.mu.Lock()
	if b.current != nil {
		b.mu.Unlock()
		return false, ErrPromptBusy
	}
	b.current = p
	b.mu.Unlock()
	if b.onOpen != nil {
		b.onOpen(p.info)
	}

	defer func() {
		b.mu.Lock()
		if b.current == p {
			b.current = nil
		}
		b.mu.Unlock()
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case approved := <-p.decision:
		return approved, nil
	}
}

func (b *PromptBroker) Pending() (models.WalletPrompt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return models.WalletPrompt{}, false
	}
	return b.current.info, true
}

// Resolve answers the outstanding prompt. An empty id resolves whichever
// prompt is outstanding.
func (b *PromptBroker) Resolve(id string, approve bool) error {
	id = strings.TrimSpace(id)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || (id != "" && b.current.info.ID != id) {
		return ErrPromptNotFound
	}
	select {
	case b.current.decision <- approve:
	default:
	}
	b.current = nil
	return nil
}
