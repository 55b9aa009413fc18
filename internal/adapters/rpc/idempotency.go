package rpc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	rpcIdempotencyHeader       = "X-LOR-Idempotency-Key"
	rpcIdempotencyReplayHeader = "X-LOR-Idempotent-Replay"
	rpcIdempotencyTTL          = 10 * time.Minute
	rpcIdempotencyMaxEntries   = 1024
)

type rpcIdempotencyEntry struct {
	requestHash string
	response    rpcResponse
}

// rpcInflight is a key reserved by a request that is still being dispatched.
type rpcInflight struct {
	requestHash string
	done        chan struct{}
	response    rpcResponse
}

type rpcIdempotencyOutcome int

const (
	// idempotencyOwned means the caller reserved the key and must call finish.
	idempotencyOwned rpcIdempotencyOutcome = iota
	idempotencyReplay
	idempotencyConflict
	idempotencyAbandoned
)

// rpcIdempotencyCache remembers responses of mutating calls so a retried
// request with the same key does not submit a second transaction. A key is
// reserved before dispatch; duplicates arriving meanwhile wait for the first
// response instead of dispatching again.
type rpcIdempotencyCache struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, rpcIdempotencyEntry]
	inflight map[string]*rpcInflight
}

func newRPCIdempotencyCache(size int, ttl time.Duration) *rpcIdempotencyCache {
	if size <= 0 {
		size = rpcIdempotencyMaxEntries
	}
	if ttl <= 0 {
		ttl = rpcIdempotencyTTL
	}
	return &rpcIdempotencyCache{
		entries:  expirable.NewLRU[string, rpcIdempotencyEntry](size, nil, ttl),
		inflight: make(map[string]*rpcInflight),
	}
}

// reserve claims cacheKey for this request. A completed or in-flight request
// with the same hash yields its response as a replay; a different hash is a
// conflict. Waiting for an in-flight request ends early when ctx is done.
func (c *rpcIdempotencyCache) reserve(ctx context.Context, cacheKey, requestHash string) (rpcResponse, rpcIdempotencyOutcome) {
	c.mu.Lock()
	if entry, ok := c.entries.Get(cacheKey); ok {
		c.mu.Unlock()
		if entry.requestHash != requestHash {
			return rpcResponse{}, idempotencyConflict
		}
		return entry.response, idempotencyReplay
	}
	if running, ok := c.inflight[cacheKey]; ok {
		c.mu.Unlock()
		if running.requestHash != requestHash {
			return rpcResponse{}, idempotencyConflict
		}
		select {
		case <-running.done:
			return running.response, idempotencyReplay
		case <-ctx.Done():
			return rpcResponse{}, idempotencyAbandoned
		}
	}
	c.inflight[cacheKey] = &rpcInflight{requestHash: requestHash, done: make(chan struct{})}
	c.mu.Unlock()
	return rpcResponse{}, idempotencyOwned
}

// finish stores the response of a reserved key and releases its waiters.
func (c *rpcIdempotencyCache) finish(cacheKey, requestHash string, resp rpcResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(cacheKey, rpcIdempotencyEntry{requestHash: requestHash, response: resp})
	if running, ok := c.inflight[cacheKey]; ok {
		running.response = resp
		delete(c.inflight, cacheKey)
		close(running.done)
	}
}

func (c *rpcIdempotencyCache) size() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func rpcIdempotencyKey(raw string, authToken string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return ""
	}
	return authToken + "|" + key
}

func rpcRequestHash(req rpcRequest) string {
	payload := struct {
		Method     string          `json:"method"`
		Params     json.RawMessage `json:"params"`
		APIVersion *int            `json:"api_version,omitempty"`
	}{
		Method:     req.Method,
		Params:     req.Params,
		APIVersion: req.APIVersion,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(req.Method + "|" + string(req.Params))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
