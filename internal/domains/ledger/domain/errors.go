package domain

import (
	"errors"
	"strings"
)

// Reason strings double as revert reasons on chain-backed ledgers.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("student not found")
	ErrAlreadyRequested  = errors.New("recommendation already requested")
	ErrNotRequested      = errors.New("recommendation not requested")
	ErrUnauthorized      = errors.New("not authorized to approve")
	ErrAlreadyApproved   = errors.New("recommendation already approved")
	errPersistedSnapshot = errors.New("ledger state persistence payload is invalid")
)

var reasonErrors = []error{
	ErrInvalidInput,
	ErrNotFound,
	ErrAlreadyRequested,
	ErrNotRequested,
	ErrUnauthorized,
	ErrAlreadyApproved,
}

// ErrorForReason maps a revert reason back to the ledger sentinel.
func ErrorForReason(reason string) (error, bool) {
	reason = strings.ToLower(strings.TrimSpace(reason))
	for _, err := range reasonErrors {
		if reason == err.Error() {
			return err, true
		}
	}
	return nil, false
}
