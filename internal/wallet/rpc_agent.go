package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"lor-chain/go-backend/internal/domains/contracts"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

type rpcCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// RPCAgent is an Agent backed by an external JSON-RPC signer (a node with
// unlocked accounts or a wallet bridge).
type RPCAgent struct {
	client rpcCaller
	closer func()
}

func NewRPCAgent(client rpcCaller) *RPCAgent {
	return &RPCAgent{client: client}
}

func DialRPCAgent(ctx context.Context, endpoint string) (*RPCAgent, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrAgentUnavailable
	}
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	return &RPCAgent{client: client, closer: client.Close}, nil
}

func (a *RPCAgent) Close() {
	if a.closer != nil {
		a.closer()
	}
}

func (a *RPCAgent) ListAuthorizedAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := a.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, Classify(err)
	}
	return accounts, nil
}

func (a *RPCAgent) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := a.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, Classify(err)
	}
	return accounts, nil
}

func (a *RPCAgent) CurrentNetworkID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := a.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return nil, Classify(err)
	}
	return (*big.Int)(&id), nil
}

func (a *RPCAgent) CreateSigner(ctx context.Context) (contracts.Signer, error) {
	accounts, err := a.ListAuthorizedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &AgentError{Tag: TagTransport, Code: CodeUnauthorized, Err: ErrNotAuthorized}
	}
	return &rpcSigner{client: a.client, address: accounts[0]}, nil
}

type rpcSigner struct {
	client  rpcCaller
	address common.Address
}

func (s *rpcSigner) Address() common.Address {
	return s.address
}

type signTxArgs struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	Data     hexutil.Bytes   `json:"data"`
	ChainID  *hexutil.Big    `json:"chainId"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

// SignTx delegates to eth_signTransaction. Both the geth {raw, tx} object and
// a bare hex string result are accepted.
func (s *rpcSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if tx == nil {
		return nil, errors.New("nil transaction")
	}
	if chainID == nil {
		return nil, errors.New("chain id is required")
	}
	args := signTxArgs{
		From:     s.address,
		To:       tx.To(),
		Gas:      hexutil.Uint64(tx.Gas()),
		GasPrice: (*hexutil.Big)(tx.GasPrice()),
		Value:    (*hexutil.Big)(tx.Value()),
		Nonce:    hexutil.Uint64(tx.Nonce()),
		Data:     tx.Data(),
		ChainID:  (*hexutil.Big)(chainID),
	}
	var raw json.RawMessage
	if err := s.client.CallContext(ctx, &raw, "eth_signTransaction", args); err != nil {
		return nil, Classify(err)
	}
	encoded, err := decodeSignedTx(raw)
	if err != nil {
		return nil, transport(err)
	}
	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(encoded); err != nil {
		return nil, transport(fmt.Errorf("decode signed transaction: %w", err))
	}
	return signed, nil
}

func decodeSignedTx(raw json.RawMessage) ([]byte, error) {
	var result signTxResult
	if err := json.Unmarshal(raw, &result); err == nil && len(result.Raw) > 0 {
		return result.Raw, nil
	}
	var bare hexutil.Bytes
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}
	return nil, errors.New("signer returned no transaction bytes")
}
