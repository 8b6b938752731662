package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"takings/internal/core"
)

func (s *Server) handleListTherapists(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	therapists, err := s.store.ListTherapists(r.Context(), status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]therapistJSON, len(therapists))
	for i, t := range therapists {
		out[i] = toTherapistJSON(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"therapists": out})
}

// parseStatusFilter allows an absent filter (list everyone) but rejects
// unknown status tokens.
func parseStatusFilter(s string) (core.TherapistStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	return core.ParseTherapistStatus(s)
}

func (s *Server) handleCreateTherapist(w http.ResponseWriter, r *http.Request) {
	t, err := therapistFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.store.CreateTherapist(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Therapist created via API",
		"therapist_id", saved.ID, "name", saved.Name,
		"component", "therapist", "operation", "create")

	writeJSON(w, http.StatusCreated, toTherapistJSON(saved))
}

func (s *Server) handleUpdateTherapist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid therapist id")
		return
	}

	t, err := therapistFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	t.ID = id

	saved, err := s.store.UpdateTherapist(r.Context(), t)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTherapistJSON(saved))
}

// handleDeactivateTherapist retires a roster entry. The row survives so
// existing records keep their reference; listings resolve it as before.
func (s *Server) handleDeactivateTherapist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, "invalid therapist id")
		return
	}

	if err := s.store.DeactivateTherapist(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deactivated": id})
}

func therapistFromRequest(r *http.Request) (core.Therapist, error) {
	payload, err := parseBody(r)
	if err != nil {
		return core.Therapist{}, core.ErrEmptyName
	}

	var t core.Therapist
	t.Name = strings.TrimSpace(payload.Get("name"))
	if t.Name == "" {
		return core.Therapist{}, core.ErrEmptyName
	}

	t.Status, err = core.ParseTherapistStatus(payload.Get("status"))
	if err != nil {
		return core.Therapist{}, err
	}

	if v := payload.Get("commission_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 {
			return core.Therapist{}, core.ErrInvalidAmount
		}
		t.CommissionRate = rate
	}

	if err := t.Validate(); err != nil {
		return core.Therapist{}, err
	}
	return t, nil
}
