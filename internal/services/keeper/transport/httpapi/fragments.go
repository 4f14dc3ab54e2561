package httpapi

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -f fragments.templ

import (
	"fmt"
	"strconv"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
)

const logTimeLayout = "15:04:05"

// severityClass keeps unknown values out of class attributes.
func severityClass(severity auditlog.Severity) string {
	if !severity.Known() {
		return string(auditlog.SeveritySecondary)
	}
	return string(severity)
}

func logID(entry auditlog.Entry) string {
	return strconv.FormatInt(entry.ID, 10)
}

func logTime(entry auditlog.Entry) string {
	return entry.CreatedAt.Local().Format(logTimeLayout)
}

func drawOverTarget(draw, target int) string {
	return fmt.Sprintf("%d / %d", draw, target)
}
