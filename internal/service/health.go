package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/surveyapi/internal/middleware"
	"github.com/mmynk/surveyapi/internal/models"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /api/health
func Health(p Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			middleware.JSONResponse(w, http.StatusServiceUnavailable, models.HealthResponse{Status: "unavailable"})
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{Status: "ok"})
	}
}
