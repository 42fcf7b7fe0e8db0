package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tempo/internal/core"
	"tempo/internal/log"
	"tempo/internal/store"
)

type sessionRequest struct {
	ID          int64      `json:"id"`
	Company     string     `json:"company"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Duration    *float64   `json:"duration"`
	IsSubmitted bool       `json:"isSubmitted"`
}

// toSession normalizes the payload: a missing duration is derived from
// endTime - startTime before validation.
func (req sessionRequest) toSession() core.WorkSession {
	s := core.WorkSession{
		ID:          req.ID,
		Company:     req.Company,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsSubmitted: req.IsSubmitted,
	}
	if req.Duration != nil {
		s.Duration = *req.Duration
	} else if req.EndTime != nil && !req.StartTime.IsZero() {
		s.Duration = req.EndTime.Sub(req.StartTime).Hours()
	}
	return s
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSessions(w, r)
	case http.MethodPost:
		s.createSession(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.ListWorkSessions(r.Context(), core.Filter{
		Company: r.URL.Query().Get("company"),
	})
	if err != nil {
		s.storeError(w, r, "List work sessions failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := req.toSession()
	if err := session.Validate(s.companies); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.sessions.CreateWorkSession(r.Context(), session)
	if err != nil {
		s.storeError(w, r, "Create work session failed", err)
		return
	}
	s.logger.InfoContext(r.Context(), "Work session created",
		log.FieldSessionID, created.ID,
		log.FieldCompany, created.Company,
		log.FieldHours, created.Duration)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTimerByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromPath(r.URL.Path, "/api/timer/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session := req.toSession()
		session.ID = id
		if err := session.Validate(s.companies); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := s.sessions.UpdateWorkSession(r.Context(), session)
		if err != nil {
			s.storeError(w, r, "Update work session failed", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.sessions.DeleteWorkSession(r.Context(), id); err != nil {
			s.storeError(w, r, "Delete work session failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"id": id})

	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// storeError maps store failures onto status codes, keeping the cause in
// the log but not in the response body.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg, log.FieldError, err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}
