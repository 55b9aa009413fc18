package ethchain

import (
	"context"
	"errors"
	"fmt"

	"lor-chain/go-backend/internal/chain/lorabi"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/pkg/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type handle struct {
	provider *Provider
	address  common.Address
	signer   contracts.Signer
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
	out, err := h.view(ctx, data)
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
	out, err := h.view(ctx, data)
	if err != nil {
		return 0, err
	}
	return lorabi.UnpackCount(out)
}

func (h *handle) view(ctx context.Context, data []byte) ([]byte, error) {
	to := h.address
	out, err := h.provider.client.CallContract(ctx, ethereum.CallMsg{
		From: h.signer.Address(),
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, asRevert(err)
	}
	return out, nil
}

func (h *handle) transact(ctx context.Context, data []byte) (contracts.PendingTx, error) {
	p := h.provider
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	from := h.signer.Address()
	to := h.address
	nonce, err := p.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gas, err := p.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return nil, asRevert(err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := h.signer.SignTx(ctx, tx, chainID)
	if err != nil {
		return nil, err
	}
	if err := p.client.SendTransaction(ctx, signed); err != nil {
		return nil, asRevert(err)
	}
	p.logger.Info("ledger transaction sent", "tx", signed.Hash().Hex(), "account", from.Hex(), "nonce", nonce)
	return &pendingTx{provider: p, hash: signed.Hash()}, nil
}

type pendingTx struct {
	provider *Provider
	hash     common.Hash
}

func (t *pendingTx) Hash() common.Hash {
	return t.hash
}

// Wait polls for the receipt until it is mined or ctx ends. A failed receipt
// status is reported as a revert without a reason.
func (t *pendingTx) Wait(ctx context.Context) (contracts.Receipt, error) {
	policy := backoff.WithContext(backoff.NewConstantBackOff(t.provider.receiptPoll), ctx)
	receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
		receipt, err := t.provider.client.TransactionReceipt(ctx, t.hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return receipt, nil
	}, policy)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return contracts.Receipt{}, ctxErr
		}
		return contracts.Receipt{}, err
	}
	result := contracts.Receipt{TxHash: t.hash}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return result, &contracts.RevertError{}
	}
	return result, nil
}
