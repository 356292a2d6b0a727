package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/surveyapi/internal/auth"
	"github.com/mmynk/surveyapi/internal/middleware"
	"github.com/mmynk/surveyapi/internal/storage"
)

// RequestError is a client mistake in the request itself: bad JSON, a bad
// path parameter, or contradictory fields.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) error {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// decodeJSON reads the body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := middleware.ParseJSONBody(w, r, v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var sizeErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("request body is not valid JSON")
		case errors.As(err, &typeErr):
			return badRequest("field %s must be of type %s", typeErr.Field, typeErr.Type)
		case errors.As(err, &sizeErr):
			return badRequest("request body exceeds %d bytes", sizeErr.Limit)
		default:
			return badRequest("invalid request body")
		}
	}
	return validate.Struct(v)
}

// writeError converts err into the matching status code and JSON body.
// Unclassified errors are logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var reqErr *RequestError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &reqErr):
		middleware.ErrorResponse(w, http.StatusBadRequest, reqErr.Message)
	case errors.As(err, &validationErrs):
		middleware.ErrorResponse(w, http.StatusBadRequest, validationMessage(validationErrs))
	case errors.Is(err, auth.ErrWeakPassword):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		middleware.ErrorResponse(w, http.StatusConflict, auth.ErrEmailExists.Error())
	case errors.Is(err, storage.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "request conflicts with existing data")
	default:
		logger.Error("request failed",
			"request_id", middleware.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}
