package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/surveyapi/internal/auth"
	"github.com/mmynk/surveyapi/internal/models"
	"github.com/mmynk/surveyapi/internal/storage"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userKey is the context key for the authenticated *models.User.
const userKey contextKey = "user"

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// GetUser returns the authenticated user placed in the context by RequireAuth,
// or nil.
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// BearerToken extracts the token from an "Authorization: <scheme> <token>"
// header. The scheme itself is not checked; exactly two space-separated
// parts are required.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("%w: expected \"<scheme> <token>\"", auth.ErrMalformedToken)
	}
	return parts[1], nil
}

var authMessages = map[string]string{
	"missing":      "Authorization token required. Registration and/or authentication required.",
	"invalid":      "Invalid token. Registration and/or authentication required.",
	"expired":      "Expired token. Reauthentication required.",
	"unknown_user": "User not found. Registration required.",
}

// RequireAuth validates the bearer token, resolves its subject to a user and
// stores the user in the request context. Failures short-circuit with a 401;
// onReject, if set, is told the reason.
func RequireAuth(tokens *auth.TokenManager, users UserLookup, logger *slog.Logger, onReject func(reason string)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				if !isAuthError(err) {
					logger.Error("failed to resolve token subject",
						"request_id", RequestID(r.Context()),
						"error", err,
					)
					ErrorResponse(w, http.StatusInternalServerError, "internal server error")
					return
				}

				reason := auth.Reason(err)
				logger.Warn("authentication rejected",
					"request_id", RequestID(r.Context()),
					"reason", reason,
					"error", err,
				)
				if onReject != nil {
					onReject(reason)
				}
				AuthErrorResponse(w, reason, authMessages[reason])
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, tokens *auth.TokenManager, users UserLookup) (*models.User, error) {
	tokenString, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := users.GetUserByEmail(r.Context(), claims.Email())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", auth.ErrUnknownSubject, claims.Email())
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isAuthError(err error) bool {
	for _, target := range []error{
		auth.ErrMissingToken,
		auth.ErrMalformedToken,
		auth.ErrInvalidSignature,
		auth.ErrExpiredToken,
		auth.ErrUnknownSubject,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
