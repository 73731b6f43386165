package server

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/noveris-inf/winact/internal/auth"
	"github.com/noveris-inf/winact/internal/report"
)

type auditRequest struct {
	// Hosts audits an explicit list; Source audits a configured provider.
	// Both may be set, in which case the lists are combined.
	Hosts  []string `json:"hosts,omitempty"`
	Source string   `json:"source,omitempty"`
}

type auditResponse struct {
	ID       string          `json:"id"`
	Hosts    int             `json:"hosts"`
	Duration int64           `json:"duration_ms"`
	Records  []report.Record `json:"records"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := DecodeJSON[auth.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		SendError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
		return
	}

	SendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := DecodeJSON[auditRequest](w, r)
	if !ok {
		return
	}

	hosts := req.Hosts
	if req.Source != "" {
		src, found := s.sources[req.Source]
		if !found {
			SendError(w, r, http.StatusBadRequest, "UNKNOWN_SOURCE",
				fmt.Sprintf("Source %q is not configured", req.Source), nil)
			return
		}
		enumerated, err := src.Hosts(r.Context())
		if err != nil {
			SendError(w, r, http.StatusBadGateway, "ENUMERATION_FAILED", err.Error(), nil)
			return
		}
		hosts = append(hosts, enumerated...)
	}

	if len(hosts) == 0 {
		SendError(w, r, http.StatusBadRequest, "NO_HOSTS", "Request names no hosts and no source", nil)
		return
	}

	start := time.Now()
	records := s.runner.Run(r.Context(), hosts)

	SendJSON(w, http.StatusOK, auditResponse{
		ID:       uuid.New().String(),
		Hosts:    len(hosts),
		Duration: time.Since(start).Milliseconds(),
		Records:  records,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	slices.Sort(names)

	SendJSON(w, http.StatusOK, map[string][]string{"sources": names})
}
