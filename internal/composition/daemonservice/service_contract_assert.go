package daemonservice

import "lor-chain/go-backend/internal/domains/contracts"

var _ contracts.ConnectionAPI = (*Service)(nil)
var _ contracts.WalletAPI = (*Service)(nil)
var _ contracts.LedgerAPI = (*Service)(nil)
var _ contracts.DaemonService = (*Service)(nil)
