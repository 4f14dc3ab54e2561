package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeFieldUnknown, "field \"x\" is unknown"))
	if !stderrors.Is(err, New(CodeFieldUnknown, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeFieldNotResource, "")) {
		t.Fatal("expected different code to not match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "append", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestCodeKindsAndStatus(t *testing.T) {
	tcs := []struct {
		code       Code
		wantKind   Kind
		wantStatus int
	}{
		{CodeCheckInvalidDraw, KindValidation, http.StatusBadRequest},
		{CodeFieldNotResource, KindValidation, http.StatusBadRequest},
		{CodeLogInvalidFilter, KindValidation, http.StatusBadRequest},
		{CodeInvestigatorNotFound, KindNotFound, http.StatusNotFound},
		{CodeNotFound, KindNotFound, http.StatusNotFound},
		{CodeUnknown, KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tcs {
		if got := tc.code.Kind(); got != tc.wantKind {
			t.Fatalf("%s kind = %q, want %q", tc.code, got, tc.wantKind)
		}
		if got := tc.code.HTTPStatus(); got != tc.wantStatus {
			t.Fatalf("%s status = %d, want %d", tc.code, got, tc.wantStatus)
		}
	}
}

func TestKindHelpers(t *testing.T) {
	if !IsValidation(fmt.Errorf("wrap: %w", New(CodeRollEmptyAction, "empty"))) {
		t.Fatal("expected validation")
	}
	if !IsNotFound(New(CodeInvestigatorNotFound, "missing")) {
		t.Fatal("expected not found")
	}
	if IsValidation(stderrors.New("plain")) {
		t.Fatal("plain errors are not validation errors")
	}
}
