package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := Wrap(ErrInternalServer, inner)

	if err.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if !stderrors.Is(err, inner) {
		t.Error("expected wrapped error to unwrap to inner")
	}
	if !stderrors.Is(err, ErrInternalServer) {
		t.Error("expected wrapped error to match sentinel")
	}
}

func TestFromCode(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		err := FromCode("BUDGET_NOT_FOUND", "")
		if err.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", err.StatusCode)
		}
		if err.Message != ErrBudgetNotFound.Message {
			t.Errorf("expected sentinel message, got %q", err.Message)
		}
		if !stderrors.Is(err, ErrBudgetNotFound) {
			t.Error("expected decoded error to match sentinel")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		err := FromCode("SOMETHING_ELSE", "boom")
		if err.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", err.StatusCode)
		}
		if stderrors.Is(err, ErrInternalServer) {
			t.Error("unknown code must not match INTERNAL_ERROR")
		}
	})
}
