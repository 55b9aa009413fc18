package models

import (
	"strings"
	"time"
)

type ConnectionError struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ConnectionStatus struct {
	Phase           string           `json:"phase"`
	AttemptInFlight bool             `json:"attempt_in_flight"`
	Account         string           `json:"account,omitempty"`
	AccountShort    string           `json:"account_short,omitempty"`
	ChainID         string           `json:"chain_id,omitempty"`
	LedgerAddress   string           `json:"ledger_address,omitempty"`
	LastError       *ConnectionError `json:"last_error,omitempty"`
	Attempts        int              `json:"attempts"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type WalletPrompt struct {
	ID        string    `json:"id"`
	Account   string    `json:"account"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortAddress renders 0x1234...abcd for display; short inputs are returned unchanged.
func ShortAddress(address string) string {
	address = strings.TrimSpace(address)
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
