package daemonservice

import (
	"context"
	"errors"

	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNoLocalWallet = errors.New("daemon has no local wallet prompt")

// Start activates the runtime and triggers the first connection attempt, the
// way a page load connects without user action. Attempts run on the runtime
// context, so Stop cancels an attempt that is still waiting on the wallet.
func (s *Service) Start(ctx context.Context) error {
	runCtx, ok := s.runtime.TryActivate(ctx)
	if !ok {
		return nil
	}
	s.logger.Info("daemon service started", "mode", s.cfg.Mode, "ledger", s.ledgerAddress.Hex())
	s.orchestrator.Trigger(runCtx)
	return nil
}

// Stop abandons the attempt in flight, rejects an outstanding wallet prompt
// and waits for background work to finish within ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.orchestrator.Reset()
	if s.prompts != nil {
		_ = s.prompts.Resolve("", false)
	}
	err := s.runtime.Deactivate(ctx)

	waited := make(chan struct{})
	go func() {
		s.orchestrator.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	for _, closeFn := range s.closers {
		closeFn()
	}
	s.closers = nil
	s.logger.Info("daemon service stopped")
	return err
}

func (s *Service) SubscribeNotifications(cursor int64) ([]contracts.NotificationEvent, <-chan contracts.NotificationEvent, func()) {
	return s.notifications.Subscribe(cursor)
}

func (s *Service) LedgerAddress() common.Address {
	return s.ledgerAddress
}

func (s *Service) ConnectionStatus() models.ConnectionStatus {
	return s.orchestrator.Status()
}

func (s *Service) Connect(ctx context.Context) (models.ConnectionStatus, bool) {
	started := s.orchestrator.Trigger(s.attemptContext(ctx))
	return s.orchestrator.Status(), started
}

func (s *Service) RetryConnection(ctx context.Context) (models.ConnectionStatus, bool) {
	started := s.orchestrator.Retry(s.attemptContext(ctx))
	return s.orchestrator.Status(), started
}

// attemptContext detaches a connection attempt from the RPC request that
// triggered it. A started service ties the attempt to its runtime instead.
func (s *Service) attemptContext(ctx context.Context) context.Context {
	if runCtx, ok := s.runtime.Context(); ok {
		return runCtx
	}
	return context.WithoutCancel(ctx)
}

func (s *Service) ResetConnection() models.ConnectionStatus {
	s.orchestrator.Reset()
	return s.orchestrator.Status()
}

func (s *Service) PendingWalletPrompt() (models.WalletPrompt, bool) {
	if s.prompts == nil {
		return models.WalletPrompt{}, false
	}
	return s.prompts.Pending()
}

func (s *Service) ResolveWalletPrompt(promptID string, approve bool) error {
	if s.prompts == nil {
		return ErrNoLocalWallet
	}
	if err := s.prompts.Resolve(promptID, approve); err != nil {
		return contracts.WrapCategorizedError(contracts.ErrorCategoryWallet, err)
	}
	s.logger.Info("wallet prompt resolved", "prompt_id", promptID, "approved", approve)
	return nil
}

func (s *Service) AddStudent(ctx context.Context, name, course, email string) (models.TxReceipt, error) {
	return s.ledgerClient.AddStudent(ctx, name, course, email)
}

func (s *Service) RequestRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error) {
	return s.ledgerClient.RequestRecommendation(ctx, id)
}

func (s *Service) ApproveRecommendation(ctx context.Context, id uint64) (models.TxReceipt, error) {
	return s.ledgerClient.ApproveRecommendation(ctx, id)
}

func (s *Service) RequestLetter(ctx context.Context, name, course, email string) (models.LetterRequest, error) {
	return s.ledgerClient.RequestLetter(ctx, name, course, email)
}

func (s *Service) GetStudent(ctx context.Context, id uint64) (models.Student, error) {
	return s.ledgerClient.GetStudent(ctx, id)
}

func (s *Service) StudentCount(ctx context.Context) (uint64, error) {
	return s.ledgerClient.StudentCount(ctx)
}
