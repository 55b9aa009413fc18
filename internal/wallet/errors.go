package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected   = 4001
	CodeUnauthorized   = 4100
	CodeRequestPending = -32002
)

type Tag string

const (
	TagUserRejected Tag = "user_rejected"
	TagPending      Tag = "already_pending"
	TagTransport    Tag = "transport"
)

var (
	ErrUserRejected     = errors.New("user rejected wallet connection")
	ErrPendingTimeout   = errors.New("connection request timeout - a wallet request is still pending")
	ErrTransport        = errors.New("wallet transport error")
	ErrAgentUnavailable = errors.New("signing agent is not available")
	ErrNoAccounts       = errors.New("signing agent returned no accounts")
	ErrNotAuthorized    = errors.New("account is not authorized")
)

// AgentError is the closed error shape every agent implementation returns.
type AgentError struct {
	Tag  Tag
	Code int
	Err  error
}

func (e *AgentError) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d): %v", e.Tag, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Tag, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func userRejected(err error) *AgentError {
	return &AgentError{Tag: TagUserRejected, Code: CodeUserRejected, Err: err}
}

func pending(err error) *AgentError {
	return &AgentError{Tag: TagPending, Code: CodeRequestPending, Err: err}
}

func transport(err error) *AgentError {
	return &AgentError{Tag: TagTransport, Err: err}
}

// Classify converts a raw provider error into an *AgentError. It is meant to
// be called by agent implementations where the raw error is first observed.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case CodeUserRejected:
			return userRejected(err)
		case CodeRequestPending:
			return pending(err)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "already pending") {
		return pending(err)
	}
	return &AgentError{Tag: TagTransport, Code: codeOf(err), Err: err}
}

// TagOf reports the tag of err; untagged errors are transport errors.
func TagOf(err error) Tag {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Tag
	}
	return TagTransport
}

func codeOf(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}
