package ledger

import (
	ledgerdomain "lor-chain/go-backend/internal/domains/ledger/domain"
	"lor-chain/go-backend/internal/domains/ledger/policy"
	ledgerusecase "lor-chain/go-backend/internal/domains/ledger/usecase"
)

type Ledger = ledgerdomain.Ledger
type SnapshotStore = ledgerdomain.SnapshotStore
type Approvers = policy.Approvers

type Client = ledgerusecase.Client
type Metrics = ledgerusecase.Metrics
type SessionSource = ledgerusecase.SessionSource

var (
	ErrInvalidInput     = ledgerdomain.ErrInvalidInput
	ErrNotFound         = ledgerdomain.ErrNotFound
	ErrAlreadyRequested = ledgerdomain.ErrAlreadyRequested
	ErrNotRequested     = ledgerdomain.ErrNotRequested
	ErrUnauthorized     = ledgerdomain.ErrUnauthorized
	ErrAlreadyApproved  = ledgerdomain.ErrAlreadyApproved
	ErrNotConnected     = ledgerusecase.ErrNotConnected
	ErrInvalidApprover  = policy.ErrInvalidApprover
)

var (
	New              = ledgerdomain.New
	NewSnapshotStore = ledgerdomain.NewSnapshotStore
	NewApprovers     = policy.NewApprovers
	ParseApprovers   = policy.ParseApprovers
	NewClient        = ledgerusecase.NewClient
	NewMetrics       = ledgerusecase.NewMetrics
)
