package contracts

import (
	"errors"
	"testing"
)

func TestRevertErrorMessage(t *testing.T) {
	err := &RevertError{Reason: "student not found"}
	if err.Error() != "execution reverted: student not found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if (&RevertError{}).Error() != "execution reverted" {
		t.Fatal("empty reason must render the bare prefix")
	}
}

func TestRevertErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("cause")
	if !errors.Is(&RevertError{Reason: "x", Err: cause}, cause) {
		t.Fatal("expected revert error to unwrap to its cause")
	}
}

func TestRevertReason(t *testing.T) {
	reason, ok := RevertReason("VM Exception: Execution reverted: recommendation not requested")
	if !ok || reason != "recommendation not requested" {
		t.Fatalf("unexpected reason=%q ok=%v", reason, ok)
	}
	if _, ok := RevertReason("insufficient funds for gas"); ok {
		t.Fatal("message without revert marker must not match")
	}
}
