package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	connectiontransport "lor-chain/go-backend/internal/domains/connection/transport"
	"lor-chain/go-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCore struct {
	connects   int
	resolvedID string
	approved   bool
	resolveErr error
	prompt     *models.WalletPrompt
}

func (f *fakeCore) ConnectionStatus() models.ConnectionStatus {
	return models.ConnectionStatus{Phase: "disconnected"}
}

func (f *fakeCore) Connect(context.Context) (models.ConnectionStatus, bool) {
	f.connects++
	return models.ConnectionStatus{Phase: "connecting", AttemptInFlight: true}, f.connects == 1
}

func (f *fakeCore) RetryConnection(ctx context.Context) (models.ConnectionStatus, bool) {
	return f.Connect(ctx)
}

func (f *fakeCore) ResetConnection() models.ConnectionStatus {
	return models.ConnectionStatus{Phase: "disconnected"}
}

func (f *fakeCore) PendingWalletPrompt() (models.WalletPrompt, bool) {
	if f.prompt == nil {
		return models.WalletPrompt{}, false
	}
	return *f.prompt, true
}

func (f *fakeCore) ResolveWalletPrompt(promptID string, approve bool) error {
	f.resolvedID, f.approved = promptID, approve
	return f.resolveErr
}

func (f *fakeCore) AddStudent(context.Context, string, string, string) (models.TxReceipt, error) {
	return models.TxReceipt{}, nil
}

func (f *fakeCore) RequestRecommendation(context.Context, uint64) (models.TxReceipt, error) {
	return models.TxReceipt{}, nil
}

func (f *fakeCore) ApproveRecommendation(context.Context, uint64) (models.TxReceipt, error) {
	return models.TxReceipt{}, nil
}

func (f *fakeCore) RequestLetter(context.Context, string, string, string) (models.LetterRequest, error) {
	return models.LetterRequest{}, nil
}

func (f *fakeCore) GetStudent(context.Context, uint64) (models.Student, error) {
	return models.Student{}, nil
}

func (f *fakeCore) StudentCount(context.Context) (uint64, error) {
	return 0, nil
}

func TestDispatchConnectReportsStarted(t *testing.T) {
	svc := &fakeCore{}
	result, rpcErr, ok := Dispatch(context.Background(), svc, connectiontransport.MethodConnectionConnect, nil)
	require.True(t, ok)
	require.Nil(t, rpcErr)
	assert.Equal(t, true, result.(map[string]any)["started"])

	result, _, _ = Dispatch(context.Background(), svc, connectiontransport.MethodConnectionConnect, json.RawMessage(`[]`))
	assert.Equal(t, false, result.(map[string]any)["started"])
}

func TestDispatchWalletPrompt(t *testing.T) {
	svc := &fakeCore{}
	result, _, _ := Dispatch(context.Background(), svc, connectiontransport.MethodWalletPrompt, nil)
	assert.Equal(t, false, result.(map[string]any)["pending"])

	svc.prompt = &models.WalletPrompt{ID: "prompt_1"}
	result, _, _ = Dispatch(context.Background(), svc, connectiontransport.MethodWalletPrompt, nil)
	assert.Equal(t, models.WalletPrompt{ID: "prompt_1"}, result.(map[string]any)["prompt"])
}

func TestDispatchWalletResolve(t *testing.T) {
	svc := &fakeCore{}
	_, rpcErr, _ := Dispatch(context.Background(), svc, connectiontransport.MethodWalletReject, json.RawMessage(`["prompt_1"]`))
	require.Nil(t, rpcErr)
	assert.Equal(t, "prompt_1", svc.resolvedID)
	assert.False(t, svc.approved)

	svc.resolveErr = errors.New("wallet prompt not found")
	_, rpcErr, _ = Dispatch(context.Background(), svc, connectiontransport.MethodWalletApprove, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, codeWalletPrompt, rpcErr.Code)
	assert.True(t, svc.approved)
}

func TestDispatchRejectsUnexpectedParams(t *testing.T) {
	_, rpcErr, ok := Dispatch(context.Background(), &fakeCore{}, connectiontransport.MethodConnectionStatus, json.RawMessage(`["x"]`))
	require.True(t, ok)
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}
