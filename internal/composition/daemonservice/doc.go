// Package daemonservice composes the daemon service behind the
// transport-neutral contracts.DaemonService API.
//
// Responsibilities:
// - Pick the chain binding (in-process simulated chain or external node).
// - Wire the connection orchestrator, wallet prompt and ledger client.
// - Publish connection and wallet prompt notifications for stream clients.
//
// Non-responsibilities:
// - Domain rules and business workflows (implemented in internal/domains/*).
// - JSON-RPC/HTTP protocol handling (internal/adapters/rpc).
//
//goland:noinspection GoCommentStart
package daemonservice
