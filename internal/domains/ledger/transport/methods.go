package transport

const (
	MethodAddStudent            = "ledger.add_student"
	MethodRequestRecommendation = "ledger.request_recommendation"
	MethodApproveRecommendation = "ledger.approve_recommendation"
	MethodRequestLetter         = "ledger.request_letter"
	MethodGetStudent            = "ledger.get_student"
	MethodStudentCount          = "ledger.student_count"
)

// MutatingMethods submit ledger transactions and are covered by the RPC
// idempotency cache.
var MutatingMethods = map[string]struct{}{
	MethodAddStudent:            {},
	MethodRequestRecommendation: {},
	MethodApproveRecommendation: {},
	MethodRequestLetter:         {},
}
