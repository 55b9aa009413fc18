package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	defaultCallRetries = 2
	callRetryDelay     = 500 * time.Millisecond
	codeKeyInProgress  = -32091
)

// rpcClient talks JSON-RPC 2.0 to a running lord daemon.
type rpcClient struct {
	endpoint   string
	token      string
	retries    int
	retryDelay time.Duration
	http       *http.Client
}

type rpcCallError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcCallError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// retryableError marks failures where the daemon may or may not have seen the
// request: transport errors, overload statuses and a key still in progress.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func newRPCClient(server, token string, timeout time.Duration) *rpcClient {
	return &rpcClient{
		endpoint:   strings.TrimRight(server, "/") + "/rpc",
		token:      token,
		retries:    defaultCallRetries,
		retryDelay: callRetryDelay,
		http:       &http.Client{Timeout: timeout},
	}
}

// call invokes method and returns the raw result. Ambiguous failures are
// retried a bounded number of times; a mutating call keeps one idempotency
// key across those retries so the daemon applies it at most once.
func (c *rpcClient) call(ctx context.Context, method string, params any, mutating bool) (json.RawMessage, error) {
	body := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	idempotencyKey := ""
	if mutating {
		idempotencyKey = uuid.NewString()
	}

	var result json.RawMessage
	err = retry.Do(
		func() error {
			out, err := c.send(ctx, payload, idempotencyKey)
			if err != nil {
				return err
			}
			result = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.retries+1)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var retryable *retryableError
			return errors.As(err, &retryable)
		}),
	)
	var retryable *retryableError
	if errors.As(err, &retryable) {
		return nil, retryable.err
	}
	return result, err
}

func (c *rpcClient) send(ctx context.Context, payload []byte, idempotencyKey string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("X-LOR-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to connect to lord: %w", err)}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("lord returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, &retryableError{err: statusErr}
		}
		return nil, statusErr
	}

	var out struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcCallError   `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		if out.Error.Code == codeKeyInProgress {
			return nil, &retryableError{err: out.Error}
		}
		return nil, out.Error
	}
	return out.Result, nil
}
