package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/service"
)

func TestLogListEscapesAndFallsBackSeverity(t *testing.T) {
	var buf strings.Builder
	err := logList([]auditlog.Entry{{
		ID:        7,
		Actor:     "<script>",
		Action:    "Listen",
		Result:    "12/60 (Extreme Success)",
		Severity:  auditlog.Severity("purple"),
		CreatedAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render log list: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, `id="log-list"`) || !strings.Contains(body, `data-log-id="7"`) {
		t.Fatalf("log list = %q", body)
	}
	if strings.Contains(body, "<script>") || strings.Contains(body, "purple") {
		t.Fatalf("log list leaked raw values: %q", body)
	}
	if !strings.Contains(body, "border-secondary") {
		t.Fatalf("unknown severity should render as secondary: %q", body)
	}
}

func TestSanityAlertOmitsBadgeForPlainDraw(t *testing.T) {
	var buf strings.Builder
	err := sanityAlert(service.SanityRoll{Draw: 42, Severity: auditlog.SeveritySecondary}).Render(context.Background(), &buf)
	if err != nil {
		t.Fatalf("render sanity alert: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, "alert-secondary") || !strings.Contains(body, "42") {
		t.Fatalf("sanity alert = %q", body)
	}
	if strings.Contains(body, "badge") {
		t.Fatalf("plain draw should carry no badge: %q", body)
	}
}
