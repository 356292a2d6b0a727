package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/surveyapi/internal/auth"
	"github.com/mmynk/surveyapi/internal/config"
	"github.com/mmynk/surveyapi/internal/metrics"
	"github.com/mmynk/surveyapi/internal/middleware"
	"github.com/mmynk/surveyapi/internal/service"
	"github.com/mmynk/surveyapi/internal/storage"
)

// Deps are the collaborators the route table needs.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	Tokens        *auth.TokenManager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	Config        config.Config
}

// NewRouter builds the API handler, including the global middleware.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authSvc := service.NewAuthService(d.Authenticator, d.Tokens, d.Metrics, d.Logger)
	surveySvc := service.NewSurveyService(d.Store, d.Metrics, d.Logger)

	limiter := middleware.NewRateLimiter(d.Config.AuthRatePerMinute, d.Config.TrustedProxies)
	requireAuth := middleware.RequireAuth(d.Tokens, d.Store, d.Logger, func(reason string) {
		d.Metrics.AuthFailures.WithLabelValues(reason).Inc()
	})

	handle := func(pattern string, h http.HandlerFunc, mws ...middleware.Middleware) {
		_, route, _ := strings.Cut(pattern, " ")
		mws = append([]middleware.Middleware{middleware.Observe(d.Metrics, route)}, mws...)
		mux.Handle(pattern, middleware.Chain(h, mws...))
	}

	// Health check
	handle("GET /api/health", service.Health(d.Store, d.Logger))

	// Authentication (public, rate limited)
	handle("POST /api/register/{$}", authSvc.Register, limiter.Limit())
	handle("POST /api/login/{$}", authSvc.Login, limiter.Limit())

	// Surveys
	handle("GET /api/surveys/{$}", surveySvc.ListSurveys)
	handle("POST /api/surveys/{$}", surveySvc.CreateSurvey, requireAuth)
	handle("GET /api/surveys/{id}/{$}", surveySvc.GetSurvey)
	handle("PUT /api/surveys/{id}/{$}", surveySvc.RecordSelections)

	mux.Handle("GET /metrics", d.Metrics.Handler())

	return middleware.Chain(mux,
		middleware.WithLogging(d.Logger),
		middleware.Recover(d.Logger),
		middleware.CORS(d.Config.AllowedOrigins),
	)
}
