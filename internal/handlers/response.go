package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// envelope is the uniform wire shape for every response. Success responses
// carry data; error responses carry only the status and message.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError pairs a wire status with a user-facing message. Handlers raise it
// once; respondError converts it to the envelope exactly once at the boundary.
type apiError struct {
	status  int
	message string
}

func (e apiError) Error() string { return e.message }

func errValidation(message string) error {
	return apiError{status: http.StatusBadRequest, message: message}
}

func errUnauthorized(message string) error {
	return apiError{status: http.StatusUnauthorized, message: message}
}

func errNotFound(message string) error {
	return apiError{status: http.StatusNotFound, message: message}
}

func errConflict(message string) error {
	return apiError{status: http.StatusConflict, message: message}
}

func errInternal(message string) error {
	return apiError{status: http.StatusInternalServerError, message: message}
}

// respondData writes a success envelope.
func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError maps an error to the wire envelope. Sentinel errors from the
// repositories and auth packages get their canonical statuses; anything
// unrecognized is a 500 with a generic message so internals never leak.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr apiError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, repositories.ErrNotFound):
		apiErr = apiError{status: http.StatusNotFound, message: "resource not found"}
	case errors.Is(err, repositories.ErrConflict):
		apiErr = apiError{status: http.StatusConflict, message: "resource already exists"}
	case errors.Is(err, auth.ErrTokenReused), errors.Is(err, auth.ErrTokenInvalid):
		apiErr = apiError{status: http.StatusUnauthorized, message: err.Error()}
	default:
		logging.FromContext(ctx).Error("unhandled error", "error", err)
		apiErr = apiError{status: http.StatusInternalServerError, message: "something went wrong"}
	}

	writeEnvelope(ctx, w, envelope{
		StatusCode: apiErr.status,
		Message:    apiErr.message,
		Success:    false,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)

	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", env.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case env.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", env.StatusCode, "message", env.Message)
	case env.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", env.StatusCode, "message", env.Message)
	}
}
