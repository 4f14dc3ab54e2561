// Package htmx holds the small set of HTMX conventions the keeper desk uses.
package htmx

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const (
	// RequestHeaderKey is the HTMX request header used to detect partial updates.
	RequestHeaderKey = "HX-Request"
	// TriggerHeaderKey carries client-side events on a response.
	TriggerHeaderKey = "HX-Trigger"
)

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeaderKey), "true")
}

// Trigger adds a client event to the response. Repeated events are not
// duplicated.
func Trigger(w http.ResponseWriter, event string) {
	event = strings.TrimSpace(event)
	if w == nil || event == "" {
		return
	}
	current := w.Header().Get(TriggerHeaderKey)
	if current == "" {
		w.Header().Set(TriggerHeaderKey, event)
		return
	}
	for _, existing := range strings.Split(current, ",") {
		if strings.TrimSpace(existing) == event {
			return
		}
	}
	w.Header().Set(TriggerHeaderKey, current+", "+event)
}

// RenderFragment writes component as an HTML fragment with the given status.
func RenderFragment(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	if component == nil {
		w.WriteHeader(status)
		return
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}
