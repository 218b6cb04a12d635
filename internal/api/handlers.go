package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"crouswatch/internal/config"
	"crouswatch/internal/domain"
	"crouswatch/internal/monitor"
)

// handleStart updates the settings when a JSON body is supplied, then
// launches monitoring.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	updated, ok := s.decodeSettings(w, r)
	if !ok {
		return
	}
	if updated != nil {
		if err := s.settings.Update(*updated); err != nil {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.monitor.Start(); err != nil {
		s.respondMonitorError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "monitoring started"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.monitor.Stop(); err != nil {
		s.respondMonitorError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "monitoring stopped"})
}

// handleCheckOnce performs a single synchronous scan cycle and returns the
// report without entering the running state.
func (s *Server) handleCheckOnce(w http.ResponseWriter, r *http.Request) {
	report, err := s.monitor.TestCheckOnce(r.Context())
	if err != nil {
		var cfgErr *domain.ConfigError
		switch {
		case errors.Is(err, monitor.ErrAlreadyRunning):
			s.respondWithError(w, http.StatusConflict, err.Error())
		case errors.As(err, &cfgErr):
			s.respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("test check failed", zap.Error(err))
			s.respondWithError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	s.respondWithJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.monitor.Status())
}

// handleUpdateConfig replaces the monitor settings. The running loop picks
// the change up at its next cycle boundary.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.settings.Update(settings); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"monitor": s.monitor.Status().State.String(),
	})
}

// decodeSettings reads an optional settings body. It returns (nil, true) for
// an empty body, and writes the error response itself on malformed input.
func (s *Server) decodeSettings(w http.ResponseWriter, r *http.Request) (*config.Settings, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	if len(body) == 0 {
		return nil, true
	}
	var settings config.Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &settings, true
}

func (s *Server) respondMonitorError(w http.ResponseWriter, err error) {
	var cfgErr *domain.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, monitor.ErrAlreadyRunning), errors.Is(err, monitor.ErrNotRunning):
		s.respondWithError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("monitor request failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
