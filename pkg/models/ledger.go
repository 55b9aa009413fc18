package models

// Student is the ledger record for one recommendation request.
type Student struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Course    string `json:"course"`
	Email     string `json:"email"`
	Requested bool   `json:"requested"`
	Approved  bool   `json:"approved"`
}

// Status is the display status used by clients: approved, pending or registered.
func (s Student) Status() string {
	switch {
	case s.Approved:
		return "approved"
	case s.Requested:
		return "pending_approval"
	default:
		return "registered"
	}
}

type TxReceipt struct {
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"block_number"`
}

type LetterRequest struct {
	StudentID uint64    `json:"student_id"`
	AddTx     TxReceipt `json:"add_tx"`
	RequestTx TxReceipt `json:"request_tx"`
}
