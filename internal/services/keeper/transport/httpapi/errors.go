package httpapi

import (
	"log"
	"net/http"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	errori18n "github.com/keeperdesk/keeperdesk/internal/platform/errors/i18n"
	"github.com/keeperdesk/keeperdesk/internal/services/shared/i18nhttp"
)

// writeError renders err with the status of its domain code. Errors without
// a domain code are store or runtime failures and render as 500.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := i18nhttp.ResolveLocale(r, h.locale)
	domainErr, ok := apperrors.As(err)
	if !ok || domainErr.Code.Kind() == apperrors.KindInternal {
		log.Printf("keeper http: %s %s: %v", r.Method, r.URL.Path, err)
		code := apperrors.CodeUnknown
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
			Code:    string(code),
			Message: errori18n.GetCatalog(locale).Format(string(code), nil),
		}})
		return
	}
	writeJSON(w, domainErr.Code.HTTPStatus(), errorResponse{Error: errorBody{
		Code:     string(domainErr.Code),
		Message:  errori18n.GetCatalog(locale).Format(string(domainErr.Code), domainErr.Metadata),
		Metadata: domainErr.Metadata,
	}})
}
