package wallet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		tag  Tag
	}{
		{"rpc user rejected", fakeRPCError{code: 4001, msg: "rejected"}, TagUserRejected},
		{"rpc pending", fakeRPCError{code: -32002, msg: "busy"}, TagPending},
		{"pending text", errors.New("Request of type 'wallet_requestPermissions' already pending"), TagPending},
		{"wrapped rpc", fmt.Errorf("call: %w", fakeRPCError{code: 4001, msg: "no"}), TagUserRejected},
		{"other rpc", fakeRPCError{code: -32603, msg: "internal"}, TagTransport},
		{"plain", errors.New("eof"), TagTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.tag, TagOf(Classify(tc.err)))
		})
	}
}

func TestClassifyKeepsAgentErrors(t *testing.T) {
	original := userRejected(errors.New("no"))
	assert.Same(t, original, Classify(original))
	assert.Nil(t, Classify(nil))
}

func TestClassifyRecordsCode(t *testing.T) {
	var agentErr *AgentError
	assert.True(t, errors.As(Classify(fakeRPCError{code: -32603, msg: "internal"}), &agentErr))
	assert.Equal(t, -32603, agentErr.Code)
	assert.Contains(t, agentErr.Error(), "code -32603")
}
