package simchain

import (
	"context"
	"errors"
	"sync"

	"lor-chain/go-backend/internal/chain/lorabi"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type handle struct {
	node    *Node
	address common.Address
	signer  contracts.Signer
}

func (h *handle) Address() common.Address {
	return h.address
}

func (h *handle) AddStudent(ctx context.Context, name, course, email string) (contracts.PendingTx, error) {
	data, err := lorabi.PackAddStudent(name, course, email)
	if err != nil {
		return nil, err
	}
	return h.transact(ctx, data)
}

func (h *handle) RequestRecommendation(ctx context.Context, id uint64) (contracts.PendingTx, error) {
	data, err := lorabi.PackRequestRecommendation(id)
	if err != nil {
		return nil, err
	}
	return h.transact(ctx, data)
}

func (h *handle) ApproveRecommendation(ctx context.Context, id uint64) (contracts.PendingTx, error) {
	data, err := lorabi.PackApproveRecommendation(id)
	if err != nil {
		return nil, err
	}
	return h.transact(ctx, data)
}

func (h *handle) GetStudent(ctx context.Context, id uint64) (models.Student, error) {
	data, err := lorabi.PackGetStudent(id)
	if err != nil {
		return models.Student{}, err
	}
	out, err := h.node.call(ctx, h.address, data)
	if err != nil {
		return models.Student{}, err
	}
	return lorabi.UnpackStudent(id, out)
}

func (h *handle) StudentCount(ctx context.Context) (uint64, error) {
	data, err := lorabi.PackStudentCount()
	if err != nil {
		return 0, err
	}
	out, err := h.node.call(ctx, h.address, data)
	if err != nil {
		return 0, err
	}
	return lorabi.UnpackCount(out)
}

func (h *handle) transact(ctx context.Context, data []byte) (contracts.PendingTx, error) {
	// Nonce assignment and submission must not interleave across callers.
	h.node.sendMu.Lock()
	defer h.node.sendMu.Unlock()

	from := h.signer.Address()
	to := h.address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    h.node.pendingNonce(from),
		To:       &to,
		Gas:      txGasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := h.signer.SignTx(ctx, tx, h.node.chainID)
	if err != nil {
		return nil, err
	}
	if err := h.node.submit(signed, from); err != nil {
		return nil, err
	}
	return &pendingTx{node: h.node, hash: signed.Hash()}, nil
}

type pendingTx struct {
	node *Node
	hash common.Hash

	mu      sync.Mutex
	done    bool
	receipt contracts.Receipt
	err     error
}

func (p *pendingTx) Hash() common.Hash {
	return p.hash
}

// Wait collects the outcome from the node once and remembers it.
func (p *pendingTx) Wait(ctx context.Context) (contracts.Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return p.receipt, p.err
	}
	receipt, err := p.node.waitMined(ctx, p.hash)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return receipt, err
	}
	p.done, p.receipt, p.err = true, receipt, err
	return receipt, err
}
