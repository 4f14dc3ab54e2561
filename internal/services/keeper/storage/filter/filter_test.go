package filter

import (
	"testing"
	"time"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
)

func TestParseLogFilterEmpty(t *testing.T) {
	cond, err := ParseLogFilter("   ")
	if err != nil {
		t.Fatalf("ParseLogFilter returned error: %v", err)
	}
	if !cond.Empty() || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseLogFilterEquality(t *testing.T) {
	cond, err := ParseLogFilter(`severity = "danger"`)
	if err != nil {
		t.Fatalf("ParseLogFilter returned error: %v", err)
	}
	if cond.Clause != "severity = ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	if len(cond.Params) != 1 || cond.Params[0] != "danger" {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseLogFilterJunctions(t *testing.T) {
	cond, err := ParseLogFilter(`actor = "KP" AND (severity = "info" OR severity = "dark")`)
	if err != nil {
		t.Fatalf("ParseLogFilter returned error: %v", err)
	}
	want := "(actor = ? AND (severity = ? OR severity = ?))"
	if cond.Clause != want {
		t.Fatalf("clause = %q, want %q", cond.Clause, want)
	}
	if len(cond.Params) != 3 || cond.Params[0] != "KP" || cond.Params[2] != "dark" {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseLogFilterTimestamp(t *testing.T) {
	cond, err := ParseLogFilter(`created_at >= timestamp("2026-03-01T10:00:00Z")`)
	if err != nil {
		t.Fatalf("ParseLogFilter returned error: %v", err)
	}
	if cond.Clause != "created_at >= ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	if len(cond.Params) != 1 || cond.Params[0] != want {
		t.Fatalf("params = %v, want [%d]", cond.Params, want)
	}
}

func TestParseLogFilterRejectsInvalid(t *testing.T) {
	for _, input := range []string{
		`unknown_field = "x"`,
		`actor = `,
		`severity:"info"`,
	} {
		_, err := ParseLogFilter(input)
		if err == nil {
			t.Fatalf("ParseLogFilter(%q) expected error", input)
		}
		if !apperrors.IsValidation(err) {
			t.Fatalf("ParseLogFilter(%q) error %v is not a validation error", input, err)
		}
	}
}
