package contracts

import (
	"errors"
	"testing"
)

func TestWrapCategorizedError_NewErrorUsesProvidedCategory(t *testing.T) {
	wrapped := WrapCategorizedError(ErrorCategoryWallet, errors.New("boom"))
	var classified *CategorizedError
	if !errors.As(wrapped, &classified) {
		t.Fatalf("expected categorized error, got %T", wrapped)
	}
	if classified.Category != ErrorCategoryWallet {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryWallet, classified.Category)
	}
}

func TestWrapCategorizedError_KeepsExistingCategory(t *testing.T) {
	inner := WrapCategorizedError(ErrorCategoryLedger, errors.New("reverted"))
	outer := WrapCategorizedError(ErrorCategoryNetwork, inner)
	if got := ErrorCategory(outer); got != ErrorCategoryLedger {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryLedger, got)
	}
}

func TestWrapCategorizedError_NormalizesUnknownCategoryToAPI(t *testing.T) {
	wrapped := WrapCategorizedError("unknown", errors.New("boom"))
	if got := ErrorCategory(wrapped); got != ErrorCategoryAPI {
		t.Fatalf("expected category=%q, got %q", ErrorCategoryAPI, got)
	}
}

func TestWrapCategorizedError_PreservesCause(t *testing.T) {
	cause := errors.New("cause")
	wrapped := WrapCategorizedError(ErrorCategoryLedger, cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected wrapped error to unwrap to its cause")
	}
	if WrapCategorizedError(ErrorCategoryLedger, nil) != nil {
		t.Fatal("nil error must stay nil")
	}
}

func TestErrorCategory_DefaultsToAPIForRegularErrors(t *testing.T) {
	if got := ErrorCategory(errors.New("plain")); got != ErrorCategoryAPI {
		t.Fatalf("expected default category=%q, got %q", ErrorCategoryAPI, got)
	}
}
