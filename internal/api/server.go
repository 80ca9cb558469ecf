package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopower/app"
	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/internal"
	"gopower/internal/errors"
)

// Server exposes sweeps and the run archive over HTTP. It serves the
// aggregated output schema only; rendering power curves is a client concern.
type Server struct {
	router  *chi.Mux
	service *app.PowerService
	logger  *internal.Logger
}

// NewServer creates an API server around the power service
func NewServer(service *app.PowerService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.handleRunSweep)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/aggregates", s.handleGetAggregates)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

type runSweepRequest struct {
	Spec   design.Spec `json:"spec"`
	Export bool        `json:"export"`
}

func (s *Server) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	var req runSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.InvalidInput("malformed request body"))
		return
	}
	if req.Spec.Alpha == 0 {
		req.Spec.Alpha = design.DefaultAlpha
	}

	result, err := s.service.RunSweep(r.Context(), app.SweepRequest{
		Spec:   req.Spec,
		Export: req.Export,
	})
	if err != nil {
		if errors.GetCode(err) == errors.CodeConfigInvalid {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.logger.Error("sweep failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), 50)
	if err != nil {
		s.writeArchiveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		s.writeArchiveError(w, err)
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, errors.NotFound("run"))
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetAggregates(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	cells, err := s.service.GetAggregates(r.Context(), runID)
	if err != nil {
		s.writeArchiveError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cells)
}

func (s *Server) writeArchiveError(w http.ResponseWriter, err error) {
	if errors.GetCode(err) == errors.CodeNotFound {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Error("archive access failed: %v", err)
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
