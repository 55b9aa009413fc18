package ports

import (
	"context"
	"time"

	"lor-chain/go-backend/pkg/models"
)

// ConnectionAPI is a transport-neutral connection lifecycle contract.
type ConnectionAPI interface {
	ConnectionStatus() models.ConnectionStatus
	Connect(ctx context.Context) (models.ConnectionStatus, bool)
	RetryConnection(ctx context.Context) (models.ConnectionStatus, bool)
	ResetConnection() models.ConnectionStatus
}

// WalletAPI exposes the local signing agent prompt to operators.
type WalletAPI interface {
	PendingWalletPrompt() (models.WalletPrompt, bool)
	ResolveWalletPrompt(promptID string, approve bool) error
}

// LedgerAPI is a transport-neutral recommendation ledger contract.
type LedgerAPI interface {
	AddStudent(ctx context.Context, name, course, email string) (models.TxReceipt, error)
	RequestRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error)
	ApproveRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error)
	RequestLetter(ctx context.Context, name, course, email string) (models.LetterRequest, error)
	GetStudent(ctx context.Context, id uint64) (models.Student, error)
	StudentCount(ctx context.Context) (uint64, error)
}

// CoreAPI is a compatibility aggregate for transport-neutral contracts.
type CoreAPI interface {
	ConnectionAPI
	WalletAPI
	LedgerAPI
}

type DaemonService interface {
	ConnectionAPI
	WalletAPI
	LedgerAPI
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func())
}

type NotificationEvent struct {
	Seq       int64
	Method    string
	Payload   any
	Timestamp time.Time
}
