package daemonconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"lor-chain/go-backend/internal/wallet"

	"gopkg.in/yaml.v3"
)

const (
	ModeSimulated = "simulated"
	ModeRPC       = "rpc"

	DefaultChainID             = 31337
	DefaultKeystoreFile        = "wallet.enc"
	DefaultLedgerStateFile     = "ledger.enc"
	DefaultNotificationBacklog = 512
)

var ErrInvalidConfig = errors.New("invalid daemon config")

// Config is the resolved daemon configuration: defaults, then the YAML file,
// then LOR_* environment overrides.
type Config struct {
	Mode                string
	ChainEndpoint       string
	ChainID             int64
	LedgerAddress       string
	ReceiptPoll         time.Duration
	Approvers           []string
	AutoApprove         bool
	KeystoreFile        string
	LedgerStateFile     string
	Requester           wallet.RequesterConfig
	NotificationBacklog int
	LogLevel            string
}

type DaemonConfig struct {
	Chain         ChainSection         `yaml:"chain"`
	Ledger        LedgerSection        `yaml:"ledger"`
	Wallet        WalletSection        `yaml:"wallet"`
	Notifications NotificationsSection `yaml:"notifications"`
	Log           LogSection           `yaml:"log"`
}

type ChainSection struct {
	Mode          string        `yaml:"mode"`
	Endpoint      string        `yaml:"endpoint"`
	ChainID       int64         `yaml:"chainId"`
	LedgerAddress string        `yaml:"ledgerAddress"`
	ReceiptPoll   time.Duration `yaml:"receiptPoll"`
}

type LedgerSection struct {
	Approvers []string `yaml:"approvers"`
	StateFile string   `yaml:"stateFile"`
}

type WalletSection struct {
	AutoApprove     *bool         `yaml:"autoApprove"`
	Keystore        string        `yaml:"keystore"`
	RequestAttempts int           `yaml:"requestAttempts"`
	RetryDelay      time.Duration `yaml:"retryDelay"`
	PendingTimeout  time.Duration `yaml:"pendingTimeout"`
	PendingPoll     time.Duration `yaml:"pendingPoll"`
}

type NotificationsSection struct {
	Backlog int `yaml:"backlog"`
}

type LogSection struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Mode:                ModeSimulated,
		ChainID:             DefaultChainID,
		ReceiptPoll:         time.Second,
		KeystoreFile:        DefaultKeystoreFile,
		LedgerStateFile:     DefaultLedgerStateFile,
		Requester:           wallet.DefaultRequesterConfig(),
		NotificationBacklog: DefaultNotificationBacklog,
		LogLevel:            "info",
	}
}

// LoadFromPath reads configPath, or the first default candidate that exists
// when configPath is empty. A missing default candidate is not an error; a
// missing explicit path is.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	candidates := []string{"go-backend/configs/config.yaml", "configs/config.yaml"}
	explicit := strings.TrimSpace(configPath) != ""
	if explicit {
		candidates = []string{configPath}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var parsed DaemonConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		break
	}

	ApplyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Merge(dst *Config, src DaemonConfig) {
	if src.Chain.Mode != "" {
		dst.Mode = src.Chain.Mode
	}
	if src.Chain.Endpoint != "" {
		dst.ChainEndpoint = src.Chain.Endpoint
	}
	if src.Chain.ChainID != 0 {
		dst.ChainID = src.Chain.ChainID
	}
	if src.Chain.LedgerAddress != "" {
		dst.LedgerAddress = src.Chain.LedgerAddress
	}
	if src.Chain.ReceiptPoll != 0 {
		dst.ReceiptPoll = src.Chain.ReceiptPoll
	}
	if src.Ledger.Approvers != nil {
		dst.Approvers = src.Ledger.Approvers
	}
	if src.Ledger.StateFile != "" {
		dst.LedgerStateFile = src.Ledger.StateFile
	}
	if src.Wallet.AutoApprove != nil {
		dst.AutoApprove = *src.Wallet.AutoApprove
	}
	if src.Wallet.Keystore != "" {
		dst.KeystoreFile = src.Wallet.Keystore
	}
	if src.Wallet.RequestAttempts != 0 {
		dst.Requester.MaxAttempts = src.Wallet.RequestAttempts
	}
	if src.Wallet.RetryDelay != 0 {
		dst.Requester.RetryDelay = src.Wallet.RetryDelay
	}
	if src.Wallet.PendingTimeout != 0 {
		dst.Requester.PendingTimeout = src.Wallet.PendingTimeout
	}
	if src.Wallet.PendingPoll != 0 {
		dst.Requester.PendingPoll = src.Wallet.PendingPoll
	}
	if src.Notifications.Backlog != 0 {
		dst.NotificationBacklog = src.Notifications.Backlog
	}
	if src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if v := envString("LOR_CHAIN_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := envString("LOR_CHAIN_ENDPOINT"); v != "" {
		cfg.ChainEndpoint = v
	}
	if v := envString("LOR_CHAIN_ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			cfg.ChainID = parsed
		}
	}
	if v := envString("LOR_LEDGER_ADDRESS"); v != "" {
		cfg.LedgerAddress = v
	}
	if v := envString("LOR_APPROVERS"); v != "" {
		cfg.Approvers = strings.Split(v, ",")
	}
	if v, ok := parseBoolEnv("LOR_WALLET_AUTO_APPROVE"); ok {
		cfg.AutoApprove = v
	}
	if v := envString("LOR_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case ModeSimulated:
	case ModeRPC:
		if strings.TrimSpace(c.ChainEndpoint) == "" {
			return fmt.Errorf("%w: rpc mode requires chain.endpoint", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown chain mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidConfig)
	}
	return nil
}

// IsRPC reports whether the daemon talks to an external node and wallet.
func (c Config) IsRPC() bool {
	return strings.EqualFold(strings.TrimSpace(c.Mode), ModeRPC)
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBoolEnv(name string) (bool, bool) {
	switch strings.ToLower(envString(name)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
