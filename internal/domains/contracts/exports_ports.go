package contracts

import contractports "lor-chain/go-backend/internal/domains/contracts/ports"

type CoreAPI = contractports.CoreAPI
type ConnectionAPI = contractports.ConnectionAPI
type WalletAPI = contractports.WalletAPI
type LedgerAPI = contractports.LedgerAPI
type DaemonService = contractports.DaemonService
type NotificationEvent = contractports.NotificationEvent
