// Package http exposes the bookkeeping JSON API.
package http

import (
	"net/http"

	"takings/internal/middleware/trace"
	"takings/internal/services"
	"takings/internal/storage"
)

type Server struct {
	http.Server
	svc   *services.RecordService
	store *storage.SQLiteRepository
}

func NewServer(addr string, svc *services.RecordService, store *storage.SQLiteRepository) *Server {
	s := &Server{
		svc:   svc,
		store: store,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("POST /records", s.handleSaveRecord)
	mux.HandleFunc("GET /records", s.handleRecordsByDate)
	mux.HandleFunc("GET /records/{id}", s.handleGetRecord)
	mux.HandleFunc("DELETE /records/{id}", s.handleDeleteRecord)

	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /chart/income", s.handleChartIncome)
	mux.HandleFunc("GET /chart/service", s.handleChartService)
	mux.HandleFunc("GET /chart/therapist", s.handleChartTherapist)
	mux.HandleFunc("GET /export", s.handleExport)

	mux.HandleFunc("GET /therapists", s.handleListTherapists)
	mux.HandleFunc("POST /therapists", s.handleCreateTherapist)
	mux.HandleFunc("PUT /therapists/{id}", s.handleUpdateTherapist)
	mux.HandleFunc("DELETE /therapists/{id}", s.handleDeactivateTherapist)

	s.Addr = addr
	s.Handler = trace.Middleware(mux)
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
