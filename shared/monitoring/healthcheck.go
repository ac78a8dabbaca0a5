package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type HealthServer struct {
	monitor *Monitor
	server  *http.Server
}

func NewHealthServer(monitor *Monitor, port int) *HealthServer {
	if port == 0 {
		port = 8080
	}
	h := &HealthServer{monitor: monitor}
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

// Router exposes /health for liveness probes and /status for a JSON snapshot.
func (h *HealthServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.healthHandler)
	r.Get("/status", h.statusHandler)
	return r
}

func (h *HealthServer) Start() {
	slog.Info("health check server starting", slog.String("addr", h.server.Addr))
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server error", slog.Any("error", err))
		}
	}()
}

func (h *HealthServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.monitor.Snapshot()); err != nil {
		slog.Warn("failed to encode status", slog.Any("error", err))
	}
}
