// Package simchain is an in-process chain that hosts recommendation ledgers.
// Transactions are signed by the session signer, queued, and mined in
// submission order when a caller waits for confirmation.
package simchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"lor-chain/go-backend/internal/chain/lorabi"
	"lor-chain/go-backend/internal/domains/contracts"
	ledgerdomain "lor-chain/go-backend/internal/domains/ledger/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultChainID = 31337
	txGasLimit     = 500_000

	maxUncollectedOutcomes = 4096
)

var (
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrNonceMismatch      = errors.New("nonce mismatch")
	ErrSenderMismatch     = errors.New("transaction sender does not match signer")
	ErrNoContract         = errors.New("no contract code at address")
)

var gasPrice = big.NewInt(1_000_000_000)

type outcome struct {
	receipt contracts.Receipt
	err     error
}

// Node is safe for concurrent use.
type Node struct {
	mu      sync.Mutex
	sendMu  sync.Mutex
	chainID *big.Int
	signer  types.Signer
	ledgers map[common.Address]*ledgerdomain.Ledger
	nonces  map[common.Address]uint64
	queue   []*types.Transaction
	senders map[common.Hash]common.Address
	// mined holds outcomes until their waiter collects them; the cap bounds
	// outcomes nobody waits for.
	mined  *lru.Cache[common.Hash, outcome]
	head   uint64
	logger *slog.Logger
}

func NewNode(chainID *big.Int, logger *slog.Logger) *Node {
	if chainID == nil {
		chainID = big.NewInt(DefaultChainID)
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := new(big.Int).Set(chainID)
	return &Node{
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
		ledgers: make(map[common.Address]*ledgerdomain.Ledger),
		nonces:  make(map[common.Address]uint64),
		senders: make(map[common.Hash]common.Address),
		mined:   mustMinedCache(),
		logger:  logger,
	}
}

// Deploy places l at the contract address derived from the deployer and its
// next nonce.
func (n *Node) Deploy(deployer common.Address, l *ledgerdomain.Ledger) common.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	address := crypto.CreateAddress(deployer, n.nonces[deployer])
	n.nonces[deployer]++
	n.ledgers[address] = l
	n.head++
	n.logger.Info("ledger deployed", "address", address.Hex(), "deployer", deployer.Hex(), "block", n.head)
	return address
}

func (n *Node) ChainID(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(n.chainID), nil
}

func (n *Node) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.ledgers[address]; !ok {
		return []byte{}, nil
	}
	return lorabi.RuntimeCode(), nil
}

func (n *Node) BlockNumber() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.head
}

func (n *Node) Bind(address common.Address, signer contracts.Signer) (contracts.LedgerHandle, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	return &handle{node: n, address: address, signer: signer}, nil
}

func (n *Node) pendingNonce(account common.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonces[account]
}

// submit validates a signed transaction and queues it for mining.
func (n *Node) submit(tx *types.Transaction, expected common.Address) error {
	sender, err := types.Sender(n.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid transaction signature: %w", err)
	}
	if sender != expected {
		return ErrSenderMismatch
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if tx.Nonce() != n.nonces[sender] {
		return fmt.Errorf("%w: have %d, want %d", ErrNonceMismatch, tx.Nonce(), n.nonces[sender])
	}
	n.nonces[sender]++
	n.queue = append(n.queue, tx)
	n.senders[tx.Hash()] = sender
	return nil
}

// waitMined mines the queue up to and including hash, one block per
// transaction, and returns the outcome recorded for hash.
func (n *Node) waitMined(ctx context.Context, hash common.Hash) (contracts.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Receipt{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for {
		if result, ok := n.mined.Peek(hash); ok {
			n.mined.Remove(hash)
			return result.receipt, result.err
		}
		if len(n.queue) == 0 {
			return contracts.Receipt{}, ErrUnknownTransaction
		}
		tx := n.queue[0]
		n.queue = n.queue[1:]
		n.mineLocked(tx)
	}
}

func (n *Node) mineLocked(tx *types.Transaction) {
	n.head++
	sender := n.senders[tx.Hash()]
	delete(n.senders, tx.Hash())
	receipt := contracts.Receipt{TxHash: tx.Hash(), BlockNumber: n.head}
	err := n.executeLocked(sender, tx)
	if err != nil {
		n.logger.Warn("transaction reverted", "tx", tx.Hash().Hex(), "block", n.head, "error", err)
	} else {
		n.logger.Debug("transaction mined", "tx", tx.Hash().Hex(), "block", n.head)
	}
	n.mined.Add(tx.Hash(), outcome{receipt: receipt, err: err})
}

func mustMinedCache() *lru.Cache[common.Hash, outcome] {
	cache, err := lru.New[common.Hash, outcome](maxUncollectedOutcomes)
	if err != nil {
		panic(err)
	}
	return cache
}

// MinedBacklog reports how many mined outcomes are still waiting for Wait.
func (n *Node) MinedBacklog() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.mined.Len()
}

func (n *Node) executeLocked(sender common.Address, tx *types.Transaction) error {
	if tx.To() == nil {
		return &contracts.RevertError{Reason: "contract creation is not supported"}
	}
	target, ok := n.ledgers[*tx.To()]
	if !ok {
		return ErrNoContract
	}
	call, err := lorabi.DecodeCall(tx.Data())
	if err != nil {
		return &contracts.RevertError{Err: err}
	}
	switch call.Method.Name {
	case lorabi.MethodAddStudent:
		var fields [3]string
		for i := range fields {
			if fields[i], err = lorabi.StringArg(call.Args, i); err != nil {
				return &contracts.RevertError{Err: err}
			}
		}
		_, err = target.AddStudent(fields[0], fields[1], fields[2])
	case lorabi.MethodRequestRecommendation:
		var id uint64
		if id, err = lorabi.Uint64Arg(call.Args, 0); err != nil {
			return revert(ledgerdomain.ErrNotFound)
		}
		err = target.RequestRecommendation(id)
	case lorabi.MethodApproveRecommendation:
		var id uint64
		if id, err = lorabi.Uint64Arg(call.Args, 0); err != nil {
			if !target.Approvers().Allows(sender) {
				return revert(ledgerdomain.ErrUnauthorized)
			}
			return revert(ledgerdomain.ErrNotFound)
		}
		err = target.ApproveRecommendation(sender, id)
	default:
		return &contracts.RevertError{Reason: "method " + call.Method.Name + " is not mutating"}
	}
	if err != nil {
		return revert(err)
	}
	return nil
}

// call executes a read-only method against the current state.
func (n *Node) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	target, ok := n.ledgers[to]
	n.mu.Unlock()
	if !ok {
		return nil, ErrNoContract
	}
	call, err := lorabi.DecodeCall(data)
	if err != nil {
		return nil, &contracts.RevertError{Err: err}
	}
	switch call.Method.Name {
	case lorabi.MethodGetStudent:
		id, err := lorabi.Uint64Arg(call.Args, 0)
		if err != nil {
			return nil, revert(ledgerdomain.ErrNotFound)
		}
		student, err := target.GetStudent(id)
		if err != nil {
			return nil, revert(err)
		}
		return lorabi.PackStudentOutput(student)
	case lorabi.MethodStudentCount:
		return lorabi.PackCountOutput(target.StudentCount())
	}
	return nil, &contracts.RevertError{Reason: "method " + call.Method.Name + " is not a view"}
}

func revert(err error) error {
	return &contracts.RevertError{Reason: err.Error(), Err: err}
}
