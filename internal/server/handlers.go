package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hyperjump/utsushi/internal/models"
	"github.com/hyperjump/utsushi/internal/store"
	"go.uber.org/zap"
)

func (s *Server) handleSubmitCode(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("submit request", zap.String("student_id", req.StudentID), zap.Int("code_bytes", len(req.Code)))
	if err := s.store.Put(r.Context(), req.StudentID, req.Code); err != nil {
		if errors.Is(err, store.ErrValidation) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("store put failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) handleDetectPlagiarism(w http.ResponseWriter, r *http.Request) {
	threshold := s.config.Detect.ThresholdOrDefault()
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			s.respondError(w, http.StatusBadRequest, "threshold must be a number in [0, 1]")
			return
		}
		threshold = parsed
	}
	report, err := s.orchestrator.Run(r.Context(), threshold)
	if err != nil {
		s.logger.Error("detection run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count submissions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	backend := "memory"
	if s.config.Storage.DatabasePath != "" {
		backend = "sqlite"
	}
	resp := map[string]interface{}{
		"submissions": count,
		"config": map[string]interface{}{
			"threshold":            s.config.Detect.ThresholdOrDefault(),
			"alpha":                s.config.Detect.AlphaOrDefault(),
			"structural_metric":    s.config.Detect.StructuralMetric,
			"workers":              s.config.Detect.Workers,
			"storage_backend":      backend,
			"embedding_dimensions": s.embedder.Dimensions(),
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSubmissions(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("clear submissions request")
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
