package rpc

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// The notification stream feeds wallet prompts and connection phases to the
// local UI. One operator rarely needs more than a browser tab, a second
// subscriber and a reconnect overlap, so the per-client budget is small. The global budget caps subscribers sharing the daemon's
// notification hub, each of which holds a buffered channel.
const (
	rpcStreamMaxGlobalEnv    = "LOR_RPC_STREAM_MAX_GLOBAL"
	rpcStreamMaxPerClientEnv = "LOR_RPC_STREAM_MAX_PER_CLIENT"

	defaultRPCStreamMaxGlobal    = 16
	defaultRPCStreamMaxPerClient = 3

	// rpcStreamRetryAfter is sent with 429 so a refused watcher resumes from
	// its last seq instead of hammering the daemon.
	rpcStreamRetryAfter = "2"
)

type rpcStreamLimitConfig struct {
	MaxGlobal    int
	MaxPerClient int
}

// rpcStreamLimiter counts open /rpc/stream subscriptions per client key
// (token or remote host, the same key the rate limiter uses).
type rpcStreamLimiter struct {
	maxGlobal    int
	maxPerClient int

	mu       sync.Mutex
	global   int
	byClient map[string]int
}

func loadRPCStreamLimitConfig() rpcStreamLimitConfig {
	return parseRPCStreamLimitConfig(os.Getenv)
}

func parseRPCStreamLimitConfig(getenv func(string) string) rpcStreamLimitConfig {
	cfg := rpcStreamLimitConfig{
		MaxGlobal:    positiveEnvInt(getenv, rpcStreamMaxGlobalEnv, defaultRPCStreamMaxGlobal),
		MaxPerClient: positiveEnvInt(getenv, rpcStreamMaxPerClientEnv, defaultRPCStreamMaxPerClient),
	}
	if cfg.MaxPerClient > cfg.MaxGlobal {
		cfg.MaxPerClient = cfg.MaxGlobal
	}
	return cfg
}

func positiveEnvInt(getenv func(string) string, name string, fallback int) int {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func newRPCStreamLimiter(cfg rpcStreamLimitConfig) *rpcStreamLimiter {
	return &rpcStreamLimiter{
		maxGlobal:    cfg.MaxGlobal,
		maxPerClient: cfg.MaxPerClient,
		byClient:     make(map[string]int),
	}
}

// acquire admits one subscription for clientKey. The returned release is
// idempotent so a handler can defer it next to an early return.
func (l *rpcStreamLimiter) acquire(clientKey string) (func(), bool) {
	if l == nil {
		return func() {}, true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.global >= l.maxGlobal || l.byClient[clientKey] >= l.maxPerClient {
		return nil, false
	}
	l.global++
	l.byClient[clientKey]++

	var once sync.Once
	return func() {
		once.Do(func() { l.release(clientKey) })
	}, true
}

func (l *rpcStreamLimiter) release(clientKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.global > 0 {
		l.global--
	}
	if next := l.byClient[clientKey] - 1; next > 0 {
		l.byClient[clientKey] = next
		return
	}
	delete(l.byClient, clientKey)
}

func (l *rpcStreamLimiter) open() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.global
}
