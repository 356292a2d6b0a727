package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/surveyapi/internal/auth"
	"github.com/mmynk/surveyapi/internal/metrics"
	"github.com/mmynk/surveyapi/internal/middleware"
	"github.com/mmynk/surveyapi/internal/models"
)

// AuthService serves registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	tokens        *auth.TokenManager
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, tokens *auth.TokenManager, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		tokens:        tokens,
		metrics:       m,
		logger:        logger,
	}
}

// Register handles POST /api/register/
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("Register request", "email", req.Email)

	user, err := s.authenticator.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Email, "error", err)
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/login/ and returns a bearer token.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", req.Email)
		s.metrics.AuthFailures.WithLabelValues("credentials").Inc()
		middleware.AuthErrorResponse(w, "", auth.ErrInvalidCredentials.Error())
		return
	}
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Token: token})
}
