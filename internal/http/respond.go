package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"takings/internal/core"
	"takings/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps domain errors to status codes: validation failures are
// user-correctable (422), missing ids are 404, the rest is internal.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, v := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidCount,
		core.ErrInvalidDate,
		core.ErrInvalidService,
		core.ErrInvalidDuration,
		core.ErrInvalidStatus,
		core.ErrEmptyName,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

type recordJSON struct {
	ID            int64      `json:"id"`
	Date          core.Date  `json:"date"`
	CardAmount    core.Money `json:"card_amount"`
	CashAmount    core.Money `json:"cash_amount"`
	TotalAmount   core.Money `json:"total_amount"`
	CustomerCount int        `json:"customer_count"`
	Note          string     `json:"note,omitempty"`
	ServiceType   string     `json:"service_type"`
	Duration      string     `json:"duration"`
	TherapistID   *int64     `json:"therapist_id,omitempty"`
	Therapist     string     `json:"therapist,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toRecordJSON(r core.Record) recordJSON {
	return recordJSON{
		ID:            r.ID,
		Date:          r.Date,
		CardAmount:    r.CardAmount,
		CashAmount:    r.CashAmount,
		TotalAmount:   r.TotalAmount,
		CustomerCount: r.CustomerCount,
		Note:          r.Note,
		ServiceType:   string(r.ServiceType),
		Duration:      string(r.Duration),
		TherapistID:   r.TherapistID,
		Therapist:     r.TherapistName,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toRecordsJSON(records []core.Record) []recordJSON {
	out := make([]recordJSON, len(records))
	for i, r := range records {
		out[i] = toRecordJSON(r)
	}
	return out
}

type therapistJSON struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	CommissionRate float64   `json:"commission_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTherapistJSON(t core.Therapist) therapistJSON {
	return therapistJSON{
		ID:             t.ID,
		Name:           t.Name,
		Status:         string(t.Status),
		CommissionRate: t.CommissionRate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
