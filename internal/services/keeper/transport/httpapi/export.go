package httpapi

import (
	"fmt"
	"log"
	"net/http"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/export"
)

const exportBaseName = "keeper-log"

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	compression, err := export.ParseCompression(r.URL.Query().Get("compress"))
	if err != nil {
		h.writeError(w, r, malformed(err.Error()))
		return
	}
	entries, err := h.svc.ExportLog(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", compression.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", compression.Filename(exportBaseName)))
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, entries, compression); err != nil {
		log.Printf("keeper http: export log: %v", err)
	}
}
