package http

import (
	"net/http"
	"strconv"
	"strings"

	"takings/internal/core"
	"takings/internal/storage"
)

const historyPageSize = 20

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.RecordFilter{
		TherapistName: strings.TrimSpace(q.Get("therapist")),
		Limit:         historyPageSize,
	}

	if start, ok := parseDateQuery(q, "start"); ok {
		filter.Start = &start
	}
	if end, ok := parseDateQuery(q, "end"); ok {
		filter.End = &end
	}
	if svc := strings.TrimSpace(q.Get("service")); svc != "" {
		st, err := core.ParseServiceType(svc)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		filter.ServiceType = st
	}
	if q.Get("order") == "asc" {
		filter.Order = "asc"
	}

	page := 1
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 1 {
			page = p
		}
	}
	filter.Offset = (page - 1) * historyPageSize

	records, err := s.store.ListInRange(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":     page,
		"per_page": historyPageSize,
		"records":  toRecordsJSON(records),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, end := resolveRangeQuery(r.URL.Query(), core.RangeThisMonth)

	records, err := s.store.ListInRange(r.Context(), storage.RecordFilter{
		Start: &start,
		End:   &end,
		Order: "asc",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":      core.Summarize(records, start, end),
		"by_therapist": core.GroupBy(records, core.TherapistKey),
		"by_service":   core.GroupBy(records, core.ServiceKey),
		"records":      toRecordsJSON(records),
	})
}

// chartPayload is the label/data pair shape the chart frontend consumes.
type chartPayload struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

func (s *Server) rangeRecords(r *http.Request) ([]core.Record, core.Date, core.Date, error) {
	start, end := resolveRangeQuery(r.URL.Query(), core.RangeLast30Days)
	records, err := s.store.ListInRange(r.Context(), storage.RecordFilter{
		Start: &start,
		End:   &end,
		Order: "asc",
	})
	return records, start, end, err
}

func (s *Server) handleChartIncome(w http.ResponseWriter, r *http.Request) {
	records, start, end, err := s.rangeRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	series := core.DailySeries(records, start, end)
	payload := chartPayload{
		Labels: make([]string, len(series)),
		Data:   make([]float64, len(series)),
	}
	for i, p := range series {
		payload.Labels[i] = p.Date.ISO()
		payload.Data[i] = p.Amount.Units()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleChartService(w http.ResponseWriter, r *http.Request) {
	s.handleGroupedChart(w, r, core.ServiceKey)
}

func (s *Server) handleChartTherapist(w http.ResponseWriter, r *http.Request) {
	s.handleGroupedChart(w, r, core.TherapistKey)
}

func (s *Server) handleGroupedChart(w http.ResponseWriter, r *http.Request, keyFn func(core.Record) string) {
	records, _, _, err := s.rangeRecords(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	groups := core.GroupBy(records, keyFn)
	payload := chartPayload{
		Labels: make([]string, len(groups)),
		Data:   make([]float64, len(groups)),
	}
	for i, g := range groups {
		payload.Labels[i] = g.Key
		payload.Data[i] = g.Revenue.Units()
	}
	writeJSON(w, http.StatusOK, payload)
}
