package simchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"lor-chain/go-backend/internal/domains/contracts"
	ledgerdomain "lor-chain/go-backend/internal/domains/ledger/domain"
	"lor-chain/go-backend/internal/domains/ledger/policy"
	"lor-chain/go-backend/internal/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSigner(t *testing.T) *wallet.KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet.NewKeySigner(key)
}

func deployLedger(t *testing.T, owner common.Address) (*Node, common.Address) {
	t.Helper()
	node := NewNode(nil, nil)
	address := node.Deploy(owner, ledgerdomain.New(policy.NewApprovers(owner)))
	return node, address
}

func TestDeployUsesCreateAddress(t *testing.T) {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	node := NewNode(big.NewInt(1337), nil)

	first := node.Deploy(deployer, ledgerdomain.New(policy.Approvers{}))
	second := node.Deploy(deployer, ledgerdomain.New(policy.Approvers{}))
	assert.Equal(t, crypto.CreateAddress(deployer, 0), first)
	assert.Equal(t, crypto.CreateAddress(deployer, 1), second)

	ctx := context.Background()
	code, err := node.CodeAt(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, code)
	code, err = node.CodeAt(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Empty(t, code)

	chainID, err := node.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1337), chainID.Int64())
}

func TestLedgerFlowThroughTransactions(t *testing.T) {
	ctx := context.Background()
	owner := newSigner(t)
	node, address := deployLedger(t, owner.Address())
	h, err := node.Bind(address, owner)
	require.NoError(t, err)

	tx, err := h.AddStudent(ctx, "Alice", "Math", "alice@email.com")
	require.NoError(t, err)
	receipt, err := tx.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), receipt.TxHash)

	count, err := h.StudentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	tx, err = h.RequestRecommendation(ctx, 0)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)

	tx, err = h.ApproveRecommendation(ctx, 0)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)

	student, err := h.GetStudent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", student.Name)
	assert.True(t, student.Requested)
	assert.True(t, student.Approved)
}

func TestRevertCarriesLedgerReason(t *testing.T) {
	ctx := context.Background()
	owner := newSigner(t)
	stranger := newSigner(t)
	node, address := deployLedger(t, owner.Address())

	h, err := node.Bind(address, stranger)
	require.NoError(t, err)
	tx, err := h.AddStudent(ctx, "Bob", "Physics", "bob@email.com")
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.NoError(t, err)

	tx, err = h.ApproveRecommendation(ctx, 0)
	require.NoError(t, err)
	_, err = tx.Wait(ctx)
	require.ErrorIs(t, err, ledgerdomain.ErrUnauthorized)
	var revertErr *contracts.RevertError
	require.True(t, errors.As(err, &revertErr))
	assert.Equal(t, "execution reverted: not authorized to approve", err.Error())

	_, err = h.GetStudent(ctx, 9)
	require.ErrorIs(t, err, ledgerdomain.ErrNotFound)
}

func TestWaitMinesQueueInOrder(t *testing.T) {
	ctx := context.Background()
	owner := newSigner(t)
	node, address := deployLedger(t, owner.Address())
	h, err := node.Bind(address, owner)
	require.NoError(t, err)

	first, err := h.AddStudent(ctx, "A", "B", "C")
	require.NoError(t, err)
	second, err := h.AddStudent(ctx, "D", "E", "F")
	require.NoError(t, err)

	secondReceipt, err := second.Wait(ctx)
	require.NoError(t, err)
	firstReceipt, err := first.Wait(ctx)
	require.NoError(t, err)
	assert.Less(t, firstReceipt.BlockNumber, secondReceipt.BlockNumber)
	assert.Equal(t, secondReceipt.BlockNumber, node.BlockNumber())

	student, err := h.GetStudent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "D", student.Name)
}

func TestCollectedOutcomesAreReleased(t *testing.T) {
	ctx := context.Background()
	owner := newSigner(t)
	node, address := deployLedger(t, owner.Address())
	h, err := node.Bind(address, owner)
	require.NoError(t, err)

	first, err := h.AddStudent(ctx, "A", "B", "C")
	require.NoError(t, err)
	second, err := h.AddStudent(ctx, "D", "E", "F")
	require.NoError(t, err)

	firstReceipt, err := first.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, node.MinedBacklog(), "only the collected outcome was mined")

	_, err = second.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, node.MinedBacklog())

	again, err := first.Wait(ctx)
	require.NoError(t, err, "waiting twice returns the remembered receipt")
	assert.Equal(t, firstReceipt, again)
}

type lyingSigner struct {
	*wallet.KeySigner
	claimed common.Address
}

func (s lyingSigner) Address() common.Address { return s.claimed }

func TestSubmitRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	owner := newSigner(t)
	node, address := deployLedger(t, owner.Address())
	h, err := node.Bind(address, lyingSigner{KeySigner: newSigner(t), claimed: owner.Address()})
	require.NoError(t, err)

	_, err = h.AddStudent(ctx, "A", "B", "C")
	require.ErrorIs(t, err, ErrSenderMismatch)
}

func TestWaitHonorsContext(t *testing.T) {
	owner := newSigner(t)
	node, address := deployLedger(t, owner.Address())
	h, err := node.Bind(address, owner)
	require.NoError(t, err)
	tx, err := h.AddStudent(context.Background(), "A", "B", "C")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tx.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, err = node.waitMined(context.Background(), types.NewTx(&types.LegacyTx{}).Hash())
	require.ErrorIs(t, err, ErrUnknownTransaction)
}
