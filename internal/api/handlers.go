// CommentBridge - Live Audience Comment Connector Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commentbridge

package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tomtom215/commentbridge/internal/logging"
)

var validate = validator.New()

// connectRequest is the body of POST /connectors/{name}/connect.
type connectRequest struct {
	Target string `json:"target" validate:"required,min=1"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	payload, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Msg("marshal api response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		logging.Error().Err(err).Msg("write api response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.registry.Snapshot()
	connected := 0
	for _, c := range snapshot {
		if c.Connected {
			connected++
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"connectors": len(snapshot),
		"connected":  connected,
	})
}

func (s *Server) handleConnectors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.registry.Snapshot())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, ok := s.registry.Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown connector "+name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4096))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read request body")
		return
	}

	var req connectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "target is required")
		return
	}

	// Armed before the launch: a connector that confirms synchronously
	// inside Connect must not publish its status ahead of the countdown.
	s.watchdog.Arm(name)
	if !c.Connect(req.Target) {
		s.watchdog.Disarm(name)
		respondError(w, http.StatusConflict, "connect rejected")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"name":   name,
		"target": req.Target,
		"state":  "connecting",
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, ok := s.registry.Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown connector "+name)
		return
	}

	s.watchdog.Disarm(name)
	c.Disconnect()

	respondJSON(w, http.StatusOK, map[string]string{
		"name":  name,
		"state": "disconnected",
	})
}
