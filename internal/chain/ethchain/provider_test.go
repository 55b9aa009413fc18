package ethchain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"lor-chain/go-backend/internal/chain/lorabi"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/wallet"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu            sync.Mutex
	chainCalls    int
	code          []byte
	nonce         uint64
	estimateErr   error
	callOut       []byte
	callErr       error
	sent          []*types.Transaction
	notFoundPolls int
	receiptStatus uint64
}

func (c *fakeClient) ChainID(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainCalls++
	return big.NewInt(1337), nil
}

func (c *fakeClient) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return c.code, nil
}

func (c *fakeClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return c.nonce, nil
}

func (c *fakeClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2), nil
}

func (c *fakeClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 90000, c.estimateErr
}

func (c *fakeClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, tx)
	return nil
}

func (c *fakeClient) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notFoundPolls > 0 {
		c.notFoundPolls--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: c.receiptStatus, BlockNumber: big.NewInt(12)}, nil
}

func (c *fakeClient) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return c.callOut, c.callErr
}

func testSigner(t *testing.T) *wallet.KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet.NewKeySigner(key)
}

var ledgerAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

func TestTransactSignsAndWaitsForReceipt(t *testing.T) {
	client := &fakeClient{nonce: 4, notFoundPolls: 2, receiptStatus: types.ReceiptStatusSuccessful}
	provider := NewProvider(client, WithReceiptPoll(time.Millisecond))
	signer := testSigner(t)
	h, err := provider.Bind(ledgerAddress, signer)
	require.NoError(t, err)

	pending, err := h.RequestRecommendation(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	sent := client.sent[0]
	assert.Equal(t, uint64(4), sent.Nonce())
	assert.Equal(t, ledgerAddress, *sent.To())
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), sent)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), from)

	call, err := lorabi.DecodeCall(sent.Data())
	require.NoError(t, err)
	assert.Equal(t, lorabi.MethodRequestRecommendation, call.Method.Name)

	receipt, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12), receipt.BlockNumber)
	assert.Equal(t, sent.Hash(), receipt.TxHash)
}

func TestFailedReceiptIsRevert(t *testing.T) {
	client := &fakeClient{receiptStatus: types.ReceiptStatusFailed}
	h, err := NewProvider(client, WithReceiptPoll(time.Millisecond)).Bind(ledgerAddress, testSigner(t))
	require.NoError(t, err)

	pending, err := h.AddStudent(context.Background(), "A", "B", "C")
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	var revertErr *contracts.RevertError
	require.True(t, errors.As(err, &revertErr))
}

func TestEstimateRevertCarriesReason(t *testing.T) {
	client := &fakeClient{estimateErr: errors.New("execution reverted: not authorized to approve")}
	h, err := NewProvider(client).Bind(ledgerAddress, testSigner(t))
	require.NoError(t, err)

	_, err = h.ApproveRecommendation(context.Background(), 0)
	var revertErr *contracts.RevertError
	require.True(t, errors.As(err, &revertErr))
	assert.Equal(t, "not authorized to approve", revertErr.Reason)
	assert.Empty(t, client.sent)
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	client := &fakeClient{notFoundPolls: 1 << 30}
	h, err := NewProvider(client, WithReceiptPoll(time.Millisecond)).Bind(ledgerAddress, testSigner(t))
	require.NoError(t, err)
	pending, err := h.AddStudent(context.Background(), "A", "B", "C")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestViewsDecodeOutputs(t *testing.T) {
	out, err := lorabi.PackStudentOutput(models.Student{Name: "Alice", Course: "Math", Email: "a@e.com"})
	require.NoError(t, err)
	client := &fakeClient{callOut: out}
	h, err := NewProvider(client).Bind(ledgerAddress, testSigner(t))
	require.NoError(t, err)

	student, err := h.GetStudent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", student.Name)

	client.callErr = errors.New("execution reverted: student not found")
	_, err = h.GetStudent(context.Background(), 1)
	var revertErr *contracts.RevertError
	require.True(t, errors.As(err, &revertErr))
	assert.Equal(t, "student not found", revertErr.Reason)
}

func TestChainIDIsCached(t *testing.T) {
	client := &fakeClient{code: []byte{0x60}}
	provider := NewProvider(client)
	for i := 0; i < 3; i++ {
		id, err := provider.ChainID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1337), id.Int64())
	}
	assert.Equal(t, 1, client.chainCalls)

	code, err := provider.CodeAt(context.Background(), ledgerAddress)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60}, code)
}
