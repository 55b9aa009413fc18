package daemonconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func boolPtr(v bool) *bool {
	return &v
}

// chdir stands in for testing.T.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOR_CHAIN_MODE", "LOR_CHAIN_ENDPOINT", "LOR_CHAIN_ID", "LOR_LEDGER_ADDRESS", "LOR_APPROVERS", "LOR_WALLET_AUTO_APPROVE", "LOR_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestMergeOverridesOnlySetFields(t *testing.T) {
	dst := Default()
	Merge(&dst, DaemonConfig{
		Chain:  ChainSection{Mode: ModeRPC, Endpoint: "http://127.0.0.1:8545", ReceiptPoll: 2 * time.Second},
		Wallet: WalletSection{RequestAttempts: 5, PendingTimeout: 9 * time.Second},
	})

	if dst.Mode != ModeRPC || dst.ChainEndpoint != "http://127.0.0.1:8545" {
		t.Fatalf("unexpected chain settings: %+v", dst)
	}
	if dst.ReceiptPoll != 2*time.Second {
		t.Fatalf("expected receiptPoll=2s, got %s", dst.ReceiptPoll)
	}
	if dst.Requester.MaxAttempts != 5 || dst.Requester.PendingTimeout != 9*time.Second {
		t.Fatalf("unexpected requester config: %+v", dst.Requester)
	}
	if dst.ChainID != DefaultChainID {
		t.Fatalf("expected default chain id to survive, got %d", dst.ChainID)
	}
	if dst.Requester.PendingPoll != time.Second {
		t.Fatalf("expected default pending poll to survive, got %s", dst.Requester.PendingPoll)
	}
}

func TestMergeDoesNotOverwriteBoolDefaultsWhenUnset(t *testing.T) {
	dst := Default()
	dst.AutoApprove = true
	Merge(&dst, DaemonConfig{})
	if !dst.AutoApprove {
		t.Fatal("autoApprove must stay true when unset in file")
	}
	Merge(&dst, DaemonConfig{Wallet: WalletSection{AutoApprove: boolPtr(false)}})
	if dst.AutoApprove {
		t.Fatal("explicit false must override")
	}
}

func TestLoadFromPathReadsYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
chain:
  mode: simulated
  chainId: 1337
ledger:
  approvers:
    - "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
wallet:
  autoApprove: true
  pendingPoll: 250ms
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOR_LOG_LEVEL", "warn")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChainID != 1337 || !cfg.AutoApprove || len(cfg.Approvers) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Requester.PendingPoll != 250*time.Millisecond {
		t.Fatalf("expected pendingPoll=250ms, got %s", cfg.Requester.PendingPoll)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("env must override file log level, got %q", cfg.LogLevel)
	}
}

func TestLoadFromPathMissingExplicitFileFails(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadFromPathRejectsRPCWithoutEndpoint(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("LOR_CHAIN_MODE", "rpc")
	_, err := LoadFromPath("")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	t.Setenv("LOR_CHAIN_ENDPOINT", "http://127.0.0.1:8545")
	cfg, err := LoadFromPath("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsRPC() {
		t.Fatal("expected rpc mode")
	}
}

func TestApplyEnvOverridesSplitsApprovers(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOR_APPROVERS", "0x01,0x02")
	t.Setenv("LOR_CHAIN_ID", "not-a-number")
	cfg := Default()
	ApplyEnvOverrides(&cfg)
	if len(cfg.Approvers) != 2 {
		t.Fatalf("expected two approvers, got %v", cfg.Approvers)
	}
	if cfg.ChainID != DefaultChainID {
		t.Fatalf("invalid chain id must be ignored, got %d", cfg.ChainID)
	}
}
