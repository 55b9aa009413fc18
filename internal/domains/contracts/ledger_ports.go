package contracts

import (
	"context"
	"math/big"
	"strings"

	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Signer authorizes mutating ledger calls on behalf of one account.
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
}

// PendingTx is a submitted mutating call. Wait blocks until the ledger
// confirms or rejects it.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (Receipt, error)
}

// LedgerHandle invokes recommendation ledger operations at one address.
type LedgerHandle interface {
	Address() common.Address
	AddStudent(ctx context.Context, name, course, email string) (PendingTx, error)
	RequestRecommendation(ctx context.Context, id uint64) (PendingTx, error)
	ApproveRecommendation(ctx context.Context, id uint64) (PendingTx, error)
	GetStudent(ctx context.Context, id uint64) (models.Student, error)
	StudentCount(ctx context.Context) (uint64, error)
}

// Provider is the chain access used to verify and bind the ledger target.
type Provider interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, address common.Address) ([]byte, error)
	Bind(address common.Address, signer Signer) (LedgerHandle, error)
}

// Session is produced only by a completed connection attempt and is never
// mutated afterwards.
type Session struct {
	Account common.Address
	Signer  Signer
	Ledger  LedgerHandle
}

const revertPrefix = "execution reverted"

// RevertError reports a mutating call rejected by the ledger itself.
type RevertError struct {
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		return revertPrefix
	}
	return revertPrefix + ": " + reason
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

// RevertReason extracts the reason from an "execution reverted: <reason>" message.
func RevertReason(message string) (string, bool) {
	lower := strings.ToLower(message)
	idx := strings.Index(lower, revertPrefix)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(message[idx+len(revertPrefix):])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	return rest, true
}
