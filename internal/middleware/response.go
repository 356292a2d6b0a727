package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mmynk/surveyapi/internal/models"
)

// MaxBodyBytes caps the size of JSON request bodies.
const MaxBodyBytes = 1 << 20

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// AuthErrorResponse writes a 401 with the authenticated=false flag.
func AuthErrorResponse(w http.ResponseWriter, reason, message string) {
	JSONResponse(w, http.StatusUnauthorized, models.AuthErrorResponse{
		Authenticated: false,
		Reason:        reason,
		Message:       message,
	})
}

// ParseJSONBody parses the request body into the given struct.
// Unknown fields are ignored: clients post back whole surveys.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(v)
}
