// Package ledger holds the recommendation ledger: student registration,
// recommendation requests and approvals. The root package re-exports what the
// composition layer needs.
//
// Package layout:
// - adapters: RPC dispatch for ledger methods
// - domain: the ledger state machine, its revert reasons and snapshot store
// - policy: approver allow-list
// - transport: method identifiers
// - usecase: the session-bound ledger client and its error taxonomy
package ledger
