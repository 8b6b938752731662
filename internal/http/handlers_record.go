package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"takings/internal/core"
	"takings/internal/storage"
)

func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	payload, err := parseBody(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Parse body error", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	rec, err := recordFromPayload(payload)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.svc.Save(r.Context(), rec)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Record saved",
		"record_id", saved.ID,
		"date", saved.Date.ISO(),
		"total_cents", saved.TotalAmount.Cents,
		"customer_count", saved.CustomerCount,
		"component", "record",
		"operation", "save")

	writeJSON(w, http.StatusOK, toRecordJSON(saved))
}

// recordFromPayload builds an unsaved record from user input. Amount and
// count fields reject non-numeric strings; only genuinely empty input
// defaults to zero.
func recordFromPayload(p *bodyPayload) (core.Record, error) {
	var rec core.Record

	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Record{}, err
		}
		rec.Date = d
	} else {
		rec.Date = core.Today()
	}

	cardCents, err := core.ParseAmountToCents(p.Get("card_amount"))
	if err != nil {
		return core.Record{}, err
	}
	cashCents, err := core.ParseAmountToCents(p.Get("cash_amount"))
	if err != nil {
		return core.Record{}, err
	}
	rec.CardAmount = core.Money{Cents: cardCents}
	rec.CashAmount = core.Money{Cents: cashCents}

	rec.CustomerCount, err = parseCount(p.Get("customer_count"))
	if err != nil {
		return core.Record{}, err
	}

	rec.ServiceType, err = core.ParseServiceType(p.Get("service_type"))
	if err != nil {
		return core.Record{}, err
	}
	rec.Duration, err = core.ParseDuration(p.Get("duration"))
	if err != nil {
		return core.Record{}, err
	}

	if v := p.Get("therapist_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return core.Record{}, errors.New("invalid therapist id")
		}
		rec.TherapistID = &id
	}

	rec.Note = p.Get("note")
	return rec, nil
}

// handleRecordsByDate returns the records for one exact date (possibly
// empty). The entry form uses it to prefill today's values.
func (s *Server) handleRecordsByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDateQuery(r.URL.Query(), "date")
	if !ok {
		date = core.Today()
	}

	records, err := s.store.ListInRange(r.Context(), storage.RecordFilter{
		Start: &date,
		End:   &date,
		Order: "asc",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":    date,
		"records": toRecordsJSON(records),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid record id")
		return
	}

	rec, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordJSON(rec))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid record id")
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		// A repeated delete means the record is already gone; surface the
		// 404 and let callers treat it as a no-op.
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Record deleted via API",
		"record_id", id, "component", "record", "operation", "delete")

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
