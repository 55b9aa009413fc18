package policy

import (
	"errors"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidApprover = errors.New("invalid approver address")

// Approvers is the set of accounts allowed to approve recommendations.
type Approvers struct {
	set map[common.Address]struct{}
}

func NewApprovers(accounts ...common.Address) Approvers {
	set := make(map[common.Address]struct{}, len(accounts))
	for _, account := range accounts {
		if account == (common.Address{}) {
			continue
		}
		set[account] = struct{}{}
	}
	return Approvers{set: set}
}

// ParseApprovers accepts hex addresses, ignoring blanks and duplicates.
func ParseApprovers(values []string) (Approvers, error) {
	accounts := make([]common.Address, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !common.IsHexAddress(raw) {
			return Approvers{}, errors.Join(ErrInvalidApprover, errors.New(raw))
		}
		address := common.HexToAddress(raw)
		if address == (common.Address{}) {
			return Approvers{}, errors.Join(ErrInvalidApprover, errors.New(raw))
		}
		accounts = append(accounts, address)
	}
	return NewApprovers(accounts...), nil
}

func (a Approvers) Allows(account common.Address) bool {
	_, ok := a.set[account]
	return ok
}

func (a Approvers) Len() int {
	return len(a.set)
}

func (a Approvers) List() []common.Address {
	out := make([]common.Address, 0, len(a.set))
	for account := range a.set {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].Hex(), out[j].Hex()) < 0
	})
	return out
}
