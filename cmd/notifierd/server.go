package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/observability/tracing"
	"stream-notify/internal/usecase/notify"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// DispatchRequest is the body of POST /v1/notifications.
type DispatchRequest struct {
	Kind       string         `json:"kind"`
	Recipients []int64        `json:"recipients"`
	Properties map[string]any `json:"properties"`
}

// DispatchResponse is returned for an accepted dispatch.
type DispatchResponse struct {
	Status string `json:"status"`
}

// newServer builds the HTTP server exposing the dispatch endpoint alongside
// the Prometheus metrics and liveness endpoints.
//
// Endpoints:
//   - POST /v1/notifications - dispatch a notification event
//   - GET /metrics - Prometheus metrics endpoint
//   - GET /health - liveness probe (always returns 200 OK)
func newServer(port int, svc notify.Service, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/v1/notifications", dispatchHandler(svc, logger))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      tracing.Middleware(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// healthHandler handles GET /health requests (liveness probe).
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

// dispatchHandler creates the handler for POST /v1/notifications. Invalid
// input maps to 400, everything else the dispatcher reports maps to 502 so
// the event producer can retry.
func dispatchHandler(svc notify.Service, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req DispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := svc.Dispatch(r.Context(), entity.Kind(req.Kind), req.Recipients, req.Properties)
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(DispatchResponse{Status: "accepted"})
		case errors.Is(err, notify.ErrUnknownKind), errors.Is(err, notify.ErrNoRecipients):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			logger.Error("dispatch failed",
				slog.String("kind", req.Kind),
				slog.Any("error", err))
			writeJSONError(w, http.StatusBadGateway, "dispatch failed")
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
