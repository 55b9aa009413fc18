package daemonservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"
	"strings"

	"lor-chain/go-backend/internal/bootstrap/daemonconfig"
	"lor-chain/go-backend/internal/chain/ethchain"
	"lor-chain/go-backend/internal/chain/simchain"
	"lor-chain/go-backend/internal/domains/connection"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/domains/ledger"
	runtimeapp "lor-chain/go-backend/internal/platform/runtime"
	"lor-chain/go-backend/internal/wallet"
	"lor-chain/go-backend/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	Config        daemonconfig.Config
	DataDir       string
	StorageSecret string
	Registry      prometheus.Registerer
	Logger        *slog.Logger
}

// chainBinding is what a chain mode contributes to the service.
type chainBinding struct {
	agent         wallet.Agent
	provider      contracts.Provider
	ledgerAddress string
	approvers     ledger.Approvers
	prompts       *wallet.PromptBroker
	closers       []func()
}

func NewService(ctx context.Context, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = runtimeapp.DefaultLogger()
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	approvers, err := ledger.ParseApprovers(cfg.Approvers)
	if err != nil {
		return nil, fmt.Errorf("parse approvers: %w", err)
	}

	s := &Service{
		cfg:           cfg,
		logger:        opts.Logger,
		runtime:       runtimeapp.NewServiceRuntime(),
		notifications: runtimeapp.NewNotificationHub(cfg.NotificationBacklog),
	}

	var binding chainBinding
	if cfg.IsRPC() {
		binding, err = s.bindRPCChain(ctx, approvers)
	} else {
		binding, err = s.bindSimulatedChain(opts, approvers)
	}
	if err != nil {
		return nil, contracts.WrapCategorizedError(contracts.ErrorCategoryNetwork, err)
	}
	s.prompts = binding.prompts
	s.closers = binding.closers
	if common.IsHexAddress(binding.ledgerAddress) {
		s.ledgerAddress = common.HexToAddress(binding.ledgerAddress)
	}

	s.orchestrator = connection.NewOrchestrator(connection.Deps{
		Agent:         binding.agent,
		Provider:      binding.provider,
		Requester:     wallet.NewRequester(cfg.Requester, s.logger),
		LedgerAddress: binding.ledgerAddress,
		Notify:        s.publishConnection,
		Metrics:       connection.NewMetrics(opts.Registry),
		Logger:        s.logger,
	})
	s.ledgerClient = ledger.NewClient(s.orchestrator, binding.approvers, s.logger, ledger.NewMetrics(opts.Registry))
	return s, nil
}

// bindSimulatedChain deploys the ledger on an in-process chain and signs with
// the key stored in the data dir keystore. With no approvers configured the
// local account is the only approver.
func (s *Service) bindSimulatedChain(opts Options, approvers ledger.Approvers) (chainBinding, error) {
	cfg := opts.Config
	if strings.TrimSpace(opts.StorageSecret) == "" {
		return chainBinding{}, errors.New("simulated chain requires a storage secret for the keystore")
	}
	mnemonic, created, err := wallet.LoadOrCreateMnemonic(dataPath(opts.DataDir, cfg.KeystoreFile), opts.StorageSecret)
	if err != nil {
		return chainBinding{}, fmt.Errorf("load keystore: %w", err)
	}
	if created {
		s.logger.Info("created local wallet keystore", "path", dataPath(opts.DataDir, cfg.KeystoreFile))
	}

	prompts := wallet.NewPromptBroker(s.publishWalletPrompt)
	var approver wallet.Approver = prompts
	if cfg.AutoApprove {
		approver = wallet.AutoApprove
		prompts = nil
	}
	chainID := big.NewInt(cfg.ChainID)
	agent, err := wallet.NewLocalAgentFromMnemonic(mnemonic, "", chainID, approver)
	if err != nil {
		return chainBinding{}, fmt.Errorf("derive local wallet: %w", err)
	}
	if approvers.Len() == 0 {
		approvers = ledger.NewApprovers(agent.Address())
	}

	book := ledger.New(approvers)
	store := ledger.NewSnapshotStore(dataPath(opts.DataDir, cfg.LedgerStateFile), opts.StorageSecret)
	if err := book.AttachStore(store); err != nil {
		return chainBinding{}, fmt.Errorf("load ledger state: %w", err)
	}
	node := simchain.NewNode(chainID, s.logger)
	address := node.Deploy(agent.Address(), book)

	return chainBinding{
		agent:         agent,
		provider:      node,
		ledgerAddress: address.Hex(),
		approvers:     approvers,
		prompts:       prompts,
	}, nil
}

// bindRPCChain uses an external node both as ledger target and as signing
// agent; the ledger address comes from config.
func (s *Service) bindRPCChain(ctx context.Context, approvers ledger.Approvers) (chainBinding, error) {
	cfg := s.cfg
	provider, err := ethchain.Dial(ctx, cfg.ChainEndpoint,
		ethchain.WithReceiptPoll(cfg.ReceiptPoll),
		ethchain.WithLogger(s.logger),
	)
	if err != nil {
		return chainBinding{}, err
	}
	agent, err := wallet.DialRPCAgent(ctx, cfg.ChainEndpoint)
	if err != nil {
		provider.Close()
		return chainBinding{}, err
	}
	return chainBinding{
		agent:         agent,
		provider:      provider,
		ledgerAddress: cfg.LedgerAddress,
		approvers:     approvers,
		closers:       []func(){agent.Close, provider.Close},
	}, nil
}

func (s *Service) publishConnection(status models.ConnectionStatus) {
	s.notifications.Publish(connection.NotificationConnection, status)
}

func (s *Service) publishWalletPrompt(prompt models.WalletPrompt) {
	s.logger.Info("wallet prompt opened", "prompt_id", prompt.ID, "account", prompt.Account)
	s.notifications.Publish(connection.NotificationWalletPrompt, prompt)
}

func dataPath(dataDir, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}
