package usecase

import (
	"errors"
	"strings"

	"lor-chain/go-backend/internal/domains/contracts"
	ledgerdomain "lor-chain/go-backend/internal/domains/ledger/domain"
	"lor-chain/go-backend/internal/wallet"

	"github.com/ethereum/go-ethereum/rpc"
)

type Kind string

const (
	KindNotConnected          Kind = "not_connected"
	KindUserRejected          Kind = "user_rejected"
	KindUnauthorized          Kind = "unauthorized"
	KindNotFound              Kind = "not_found"
	KindAlreadyRequested      Kind = "already_requested"
	KindNotRequested          Kind = "not_requested"
	KindAlreadyApproved       Kind = "already_approved"
	KindInvalidInput          Kind = "invalid_input"
	KindInsufficientResources Kind = "insufficient_resources"
	KindExecutionReverted     Kind = "execution_reverted"
	KindTransport             Kind = "transport_error"
)

var ErrNotConnected = errors.New("ledger session is not connected")

const codeInternalRPC = -32603

// Error is the single classified form of every ledger client failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func KindOf(err error) (Kind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return "", false
}

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotConnected, KindNotConnected},
	{ledgerdomain.ErrUnauthorized, KindUnauthorized},
	{ledgerdomain.ErrNotFound, KindNotFound},
	{ledgerdomain.ErrAlreadyRequested, KindAlreadyRequested},
	{ledgerdomain.ErrNotRequested, KindNotRequested},
	{ledgerdomain.ErrAlreadyApproved, KindAlreadyApproved},
	{ledgerdomain.ErrInvalidInput, KindInvalidInput},
}

// Classify maps a raw failure to its Kind. Already classified errors are
// returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	kind, reason := classifyKind(err)
	return &Error{Kind: kind, Message: humanMessage(kind, reason), Err: err}
}

func classifyKind(err error) (Kind, string) {
	for _, entry := range sentinelKinds {
		if errors.Is(err, entry.err) {
			return entry.kind, ""
		}
	}
	var agentErr *wallet.AgentError
	if errors.As(err, &agentErr) && agentErr.Tag == wallet.TagUserRejected {
		return KindUserRejected, ""
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == wallet.CodeUserRejected {
		return KindUserRejected, ""
	}
	var revertErr *contracts.RevertError
	if errors.As(err, &revertErr) {
		return revertKind(revertErr.Reason)
	}
	message := err.Error()
	if strings.Contains(strings.ToLower(message), "insufficient funds") {
		return KindInsufficientResources, ""
	}
	if reason, ok := contracts.RevertReason(message); ok {
		return revertKind(reason)
	}
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeInternalRPC {
		return KindTransport, "internal"
	}
	return KindTransport, ""
}

func revertKind(reason string) (Kind, string) {
	if sentinel, ok := ledgerdomain.ErrorForReason(reason); ok {
		for _, entry := range sentinelKinds {
			if entry.err == sentinel {
				return entry.kind, ""
			}
		}
	}
	return KindExecutionReverted, reason
}

func humanMessage(kind Kind, detail string) string {
	switch kind {
	case KindNotConnected:
		return "Please connect your wallet first."
	case KindUserRejected:
		return "Transaction rejected by user."
	case KindUnauthorized:
		return "Only an approver can approve recommendations."
	case KindNotFound:
		return "Student not found."
	case KindAlreadyRequested:
		return "A recommendation was already requested for this student."
	case KindNotRequested:
		return "No recommendation has been requested for this student."
	case KindAlreadyApproved:
		return "This recommendation is already approved."
	case KindInvalidInput:
		return "Please fill in all fields."
	case KindInsufficientResources:
		return "Insufficient funds for transaction."
	case KindExecutionReverted:
		if strings.TrimSpace(detail) == "" {
			detail = "Contract execution reverted"
		}
		return "Transaction failed: " + detail
	}
	if detail == "internal" {
		return "Internal JSON-RPC error. Check your contract address and network."
	}
	return "Ledger request failed. Check your connection and try again."
}
