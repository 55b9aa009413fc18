package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	connectionrpc "lor-chain/go-backend/internal/domains/connection/adapters/rpc"
	ledgerrpc "lor-chain/go-backend/internal/domains/ledger/adapters/rpc"
	ledgertransport "lor-chain/go-backend/internal/domains/ledger/transport"
	"lor-chain/go-backend/internal/domains/rpckit"

	"github.com/google/uuid"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const (
	maxRPCBodyBytes    int64 = 64 << 10
	rpcRequestIDHeader       = "X-LOR-Request-ID"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorizeRPC(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := s.extractRPCToken(r)
	if !s.limiter.Allow(rpcRateLimitKey(r, token), time.Now()) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	reqID := rpcCorrelationID(r.Header.Get(rpcRequestIDHeader), req.ID)
	w.Header().Set(rpcRequestIDHeader, reqID)
	if rpcErr := validateRPCAPIVersion(req.APIVersion); rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	idempotencyKey := ""
	requestHash := ""
	if _, mutating := ledgertransport.MutatingMethods[req.Method]; mutating {
		idempotencyKey = rpcIdempotencyKey(r.Header.Get(rpcIdempotencyHeader), token)
	}
	if idempotencyKey != "" {
		requestHash = rpcRequestHash(req)
		cached, outcome := s.idempotency.reserve(r.Context(), idempotencyKey, requestHash)
		switch outcome {
		case idempotencyConflict:
			writeRPC(w, rpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: -32090, Message: "idempotency key reused with different request"},
			})
			return
		case idempotencyAbandoned:
			writeRPC(w, rpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: -32091, Message: "request with this idempotency key is still in progress"},
			})
			return
		case idempotencyReplay:
			cached.ID = req.ID
			w.Header().Set(rpcIdempotencyReplayHeader, "true")
			writeRPC(w, cached)
			return
		}
	}

	started := time.Now()
	slog.Default().Info("rpc request", "request_id", reqID, "method", req.Method, "rpc_id", string(req.ID))
	result, rpcErr := s.dispatchIdempotent(r.Context(), idempotencyKey, requestHash, req)
	latency := time.Since(started)
	s.metrics.observe(req.Method, rpcErr, latency)
	if rpcErr != nil {
		slog.Default().Error("rpc failed", "request_id", reqID, "method", req.Method, "rpc_code", rpcErr.Code, "latency_ms", latency.Milliseconds())
	} else {
		slog.Default().Info("rpc response", "request_id", reqID, "method", req.Method, "latency_ms", latency.Milliseconds())
	}
	resp := rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	}
	writeRPC(w, resp)
}

// dispatchIdempotent dispatches and, for a reserved key, always releases the
// reservation with the response, including when dispatch panics.
func (s *Server) dispatchIdempotent(ctx context.Context, idempotencyKey, requestHash string, req rpcRequest) (result any, rpcErr *rpcError) {
	if idempotencyKey == "" {
		return s.dispatchRPC(ctx, req.Method, req.Params)
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			rpcErr = &rpcError{Code: -32603, Message: "internal error"}
			result = nil
			slog.Default().Error("rpc dispatch panicked", "method", req.Method, "panic", recovered)
		}
		s.idempotency.finish(idempotencyKey, requestHash, rpcResponse{JSONRPC: "2.0", Result: result, Error: rpcErr})
	}()
	return s.dispatchRPC(ctx, req.Method, req.Params)
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return map[string]string{"status": "ok"}, nil
	case "rpc.version":
		return rpcVersionInfo(), nil
	}
	if s.service == nil {
		return nil, &rpcError{Code: -32099, Message: "service is not initialized"}
	}
	if result, rpcErr, ok := connectionrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, fromKitError(rpcErr)
	}
	if result, rpcErr, ok := ledgerrpc.Dispatch(ctx, s.service, method, rawParams); ok {
		return result, fromKitError(rpcErr)
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

func fromKitError(err *rpckit.Error) *rpcError {
	if err == nil {
		return nil
	}
	return &rpcError{Code: err.Code, Message: err.Message, Data: err.Data}
}

// rpcCorrelationID prefers the caller supplied header, then the JSON-RPC id,
// then a fresh uuid.
func rpcCorrelationID(header string, id json.RawMessage) string {
	if v := sanitizeRequestID(header); v != "" {
		return v
	}
	raw := strings.TrimSpace(string(id))
	if raw != "" && raw != "null" {
		return "rpc." + sanitizeRequestID(raw)
	}
	return "rpc_" + uuid.NewString()
}

func sanitizeRequestID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 128 {
		raw = raw[:128]
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}

func rpcCodeLabel(err *rpcError) string {
	if err == nil {
		return "ok"
	}
	return strconv.Itoa(err.Code)
}
