// Package wallet talks to the signing agent: account negotiation, network
// identification and signer creation. Raw agent failures are converted into
// *AgentError exactly once, inside the agent implementations.
package wallet

import (
	"context"
	"math/big"

	"lor-chain/go-backend/internal/domains/contracts"

	"github.com/ethereum/go-ethereum/common"
)

// Agent is the signing agent contract.
type Agent interface {
	ListAuthorizedAccounts(ctx context.Context) ([]common.Address, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	CurrentNetworkID(ctx context.Context) (*big.Int, error)
	CreateSigner(ctx context.Context) (contracts.Signer, error)
}
