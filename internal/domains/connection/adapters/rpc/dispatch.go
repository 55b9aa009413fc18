package rpc

import (
	"context"
	"encoding/json"

	connectiontransport "lor-chain/go-backend/internal/domains/connection/transport"
	"lor-chain/go-backend/internal/domains/contracts"
	"lor-chain/go-backend/internal/domains/rpckit"
)

const codeWalletPrompt = -32031

func Dispatch(ctx context.Context, service contracts.CoreAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case connectiontransport.MethodConnectionStatus:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		return service.ConnectionStatus(), nil, true
	case connectiontransport.MethodConnectionConnect:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		status, started := service.Connect(ctx)
		return map[string]any{"started": started, "status": status}, nil, true
	case connectiontransport.MethodConnectionRetry:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		status, started := service.RetryConnection(ctx)
		return map[string]any{"started": started, "status": status}, nil, true
	case connectiontransport.MethodConnectionReset:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		return service.ResetConnection(), nil, true
	case connectiontransport.MethodWalletPrompt:
		if err := rpckit.DecodeNoParams(rawParams); err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		prompt, ok := service.PendingWalletPrompt()
		if !ok {
			return map[string]any{"pending": false}, nil, true
		}
		return map[string]any{"pending": true, "prompt": prompt}, nil, true
	case connectiontransport.MethodWalletApprove, connectiontransport.MethodWalletReject:
		promptID, err := rpckit.DecodeOptionalStringParam(rawParams)
		if err != nil {
			return nil, rpckit.InvalidParams(), true
		}
		approve := method == connectiontransport.MethodWalletApprove
		if err := service.ResolveWalletPrompt(promptID, approve); err != nil {
			return nil, rpckit.ServiceError(codeWalletPrompt, err), true
		}
		return map[string]bool{"resolved": true, "approved": approve}, nil, true
	default:
		return nil, nil, false
	}
}
