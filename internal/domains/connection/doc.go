// Package connection negotiates the session between the daemon, the signing
// agent and the ledger target.
//
// Package layout:
// - adapters: RPC dispatch for connection and wallet prompt methods
// - model: phases, failure reasons and the observable state
// - transport: method identifiers
// - usecase: the single-flight connection orchestrator
package connection
