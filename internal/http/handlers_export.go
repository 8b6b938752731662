package http

import (
	"log/slog"
	"net/http"

	"takings/internal/core"
	"takings/internal/export"
	"takings/internal/storage"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.RecordFilter{Order: "asc"}
	if start, ok := parseDateQuery(q, "start"); ok {
		filter.Start = &start
	}
	if end, ok := parseDateQuery(q, "end"); ok {
		filter.End = &end
	}

	records, err := s.store.ListInRange(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := export.Filename(core.Today())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
	w.WriteHeader(http.StatusOK)

	if err := export.WriteCSV(w, records); err != nil {
		// Headers are already gone; all we can do is log.
		slog.ErrorContext(r.Context(), "CSV export failed mid-stream",
			"error", err, "records", len(records), "component", "export")
	}
}
