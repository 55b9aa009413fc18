// Package ethchain binds the recommendation ledger on an Ethereum JSON-RPC
// node.
package ethchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"lor-chain/go-backend/internal/domains/contracts"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const DefaultReceiptPoll = 500 * time.Millisecond

// Client is the subset of *ethclient.Client the provider needs.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Provider struct {
	client      Client
	receiptPoll time.Duration
	logger      *slog.Logger
	closer      func()

	chainMu sync.Mutex
	chainID *big.Int
	sendMu  sync.Mutex
}

type Option func(*Provider)

func WithReceiptPoll(interval time.Duration) Option {
	return func(p *Provider) {
		if interval > 0 {
			p.receiptPoll = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProvider(client Client, opts ...Option) *Provider {
	p := &Provider{
		client:      client,
		receiptPoll: DefaultReceiptPoll,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func Dial(ctx context.Context, endpoint string, opts ...Option) (*Provider, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("chain endpoint is required")
	}
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial chain endpoint: %w", err)
	}
	p := NewProvider(client, opts...)
	p.closer = client.Close
	return p, nil
}

func (p *Provider) Close() {
	if p.closer != nil {
		p.closer()
	}
}

// ChainID is cached after the first successful lookup.
func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	p.chainMu.Lock()
	defer p.chainMu.Unlock()
	if p.chainID != nil {
		return new(big.Int).Set(p.chainID), nil
	}
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	p.chainID = new(big.Int).Set(id)
	return id, nil
}

func (p *Provider) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	return p.client.CodeAt(ctx, address, nil)
}

func (p *Provider) Bind(address common.Address, signer contracts.Signer) (contracts.LedgerHandle, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	return &handle{provider: p, address: address, signer: signer}, nil
}

// asRevert converts node errors carrying an "execution reverted" message.
func asRevert(err error) error {
	if err == nil {
		return nil
	}
	if reason, ok := contracts.RevertReason(err.Error()); ok {
		return &contracts.RevertError{Reason: reason, Err: err}
	}
	return err
}
