package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/snipcheck/internal/state"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// DefaultListLimit caps /api/runs when no limit is given.
const DefaultListLimit = 50

// RunDetail is the body of /api/runs/{id}.
type RunDetail struct {
	Run     *core.Run    `json:"run"`
	Entries []core.Entry `json:"entries"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorBody{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*core.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, _ *http.Request) {
	run, err := s.store.GetLatestRun()
	if err != nil {
		s.logger.Error("failed to get latest run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get latest run")
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no runs recorded")
		return
	}
	s.writeRunDetail(w, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(id)
	if errors.Is(err, state.ErrRunNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("run %q not found", id))
		return
	}
	if err != nil {
		s.logger.Error("failed to get run", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	s.writeRunDetail(w, run)
}

func (s *Server) writeRunDetail(w http.ResponseWriter, run *core.Run) {
	entries, err := s.store.GetEntriesForRun(run.ID)
	if err != nil {
		s.logger.Error("failed to get entries", "id", run.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get entries")
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	s.writeJSON(w, http.StatusOK, RunDetail{Run: run, Entries: entries})
}

// handleEvents streams a "run" event whenever the notifier fires.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			data := "{}"
			if run, err := s.store.GetLatestRun(); err == nil && run != nil {
				if b, err := json.Marshal(run); err == nil {
					data = string(b)
				}
			}
			_, _ = fmt.Fprintf(w, "event: run\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
