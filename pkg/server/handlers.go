package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mittwald/mittcheck/pkg/sink"
	"github.com/mittwald/mittcheck/pkg/value"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const contextKeyCheck contextKey = "check"

const defaultHistoryLimit = 20

// StatusResponse is served on /status.
type StatusResponse struct {
	OK      bool                      `json:"ok"`
	Failing []string                  `json:"failing"`
	Checks  map[string]value.Snapshot `json:"checks"`
}

// CheckResponse is served on /v1/checks/{name}.
type CheckResponse struct {
	Name     string         `json:"name"`
	Snapshot value.Snapshot `json:"snapshot"`
	Failing  []string       `json:"failing,omitempty"`
}

func (s *Server) requireCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name, ok := mux.Vars(req)["name"]
		if !ok {
			http.Error(w, "check parameter is missing", http.StatusBadRequest)
			return
		}
		if _, ok := s.manager.Get(name); !ok {
			http.Error(w, fmt.Sprintf("check %q not found", name), http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), contextKeyCheck, name)))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	response := StatusResponse{
		OK:      true,
		Failing: []string{},
		Checks:  s.manager.Snapshots(),
	}

	for _, name := range s.manager.Names() {
		if response.Checks[name].Failing() {
			response.OK = false
			response.Failing = append(response.Failing, name)
		}
	}

	status := http.StatusOK
	if !response.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, &response)
}

func (s *Server) handleChecks(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Names())
}

func (s *Server) handleCheck(w http.ResponseWriter, req *http.Request) {
	name := req.Context().Value(contextKeyCheck).(string)
	snap, _ := s.manager.GetSnapshot(name)

	writeJSON(w, http.StatusOK, &CheckResponse{
		Name:     name,
		Snapshot: snap,
		Failing:  snap.ErrorPaths(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, req *http.Request) {
	if s.history == nil {
		http.Error(w, "no snapshot sink configured", http.StatusNotImplemented)
		return
	}

	limit := defaultHistoryLimit
	if l := req.FormValue("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			http.Error(w, fmt.Sprintf("invalid limit %q", l), http.StatusBadRequest)
			return
		}
		limit = n
	}

	name := req.Context().Value(contextKeyCheck).(string)
	records, err := s.history.History(req.Context(), name, limit)
	if err != nil {
		log.WithFields(log.Fields{"kind": "api", "check": name}).WithError(err).Error("could not read history")
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []sink.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}
