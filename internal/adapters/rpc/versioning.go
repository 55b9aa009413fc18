package rpc

import (
	"sort"

	connectiontransport "lor-chain/go-backend/internal/domains/connection/transport"
	ledgertransport "lor-chain/go-backend/internal/domains/ledger/transport"
)

// Version 1 is the first ledger API: connection.*, ledger.* and wallet prompt
// methods. A request may pin api_version; requests without one get the
// current version. Stream notifications carry their own version in params.
const (
	rpcAPICurrentVersion      = 1
	rpcAPIMinSupportedVersion = 1
	rpcNotificationVersion    = 1

	rpcCodeVersionUnsupported = -32080
	rpcCodeVersionDeprecated  = -32081
)

func validateRPCAPIVersion(v *int) *rpcError {
	if v == nil {
		return nil
	}
	switch {
	case *v < rpcAPIMinSupportedVersion:
		return &rpcError{
			Code:    rpcCodeVersionDeprecated,
			Message: "ledger rpc api version is no longer supported",
			Data:    rpcVersionRange(),
		}
	case *v > rpcAPICurrentVersion:
		return &rpcError{
			Code:    rpcCodeVersionUnsupported,
			Message: "ledger rpc api version is newer than this daemon",
			Data:    rpcVersionRange(),
		}
	}
	return nil
}

func rpcVersionRange() map[string]int {
	return map[string]int{
		"current_version":       rpcAPICurrentVersion,
		"min_supported_version": rpcAPIMinSupportedVersion,
	}
}

// rpcVersionInfo answers rpc.version. Clients use it to learn which
// notifications the stream emits and which methods need an idempotency key.
func rpcVersionInfo() map[string]any {
	mutating := make([]string, 0, len(ledgertransport.MutatingMethods))
	for method := range ledgertransport.MutatingMethods {
		mutating = append(mutating, method)
	}
	sort.Strings(mutating)
	return map[string]any{
		"current_version":       rpcAPICurrentVersion,
		"min_supported_version": rpcAPIMinSupportedVersion,
		"notification_version":  rpcNotificationVersion,
		"notifications": []string{
			connectiontransport.NotificationConnection,
			connectiontransport.NotificationWalletPrompt,
		},
		"idempotent_methods": mutating,
		"idempotency_header": rpcIdempotencyHeader,
	}
}
