// Package response writes the JSON envelope shared by every endpoint:
// {success, data, message, error} plus pagination fields on list responses.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/example/shopwise/internal/auth"
	"github.com/example/shopwise/internal/domain"
)

type Envelope struct {
	Success     bool              `json:"success"`
	Data        any               `json:"data,omitempty"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	TotalPages  *int              `json:"totalPages,omitempty"`
	CurrentPage *int              `json:"currentPage,omitempty"`
	Total       *int              `json:"total,omitempty"`
	Stack       string            `json:"stack,omitempty"`
}

type devModeKey struct{}

// DevMode marks requests so error responses carry internal details.
func DevMode(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), devModeKey{}, enabled)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isDev(ctx context.Context) bool {
	dev, _ := ctx.Value(devModeKey{}).(bool)
	return dev
}

func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: true, Message: message})
}

// List writes one page of items with its pagination fields.
func List(w http.ResponseWriter, data any, total, currentPage, totalPages int) {
	JSON(w, http.StatusOK, Envelope{
		Success:     true,
		Data:        data,
		Total:       &total,
		CurrentPage: &currentPage,
		TotalPages:  &totalPages,
	})
}

// Status maps an error to its HTTP status and a stable code.
func Status(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, "TOO_MANY_REQUESTS"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// Error writes err in the envelope. Classified errors carry their own
// message; anything else is logged and answered with a generic 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	env := Envelope{Success: false, Message: err.Error(), Error: code}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		env.Errors = verr.Fields
	}

	if status == http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed",
			"component", "http", "method", r.Method, "path", r.URL.Path, "error", err)
		env.Message = "Server error"
		env.Error = "Internal server error"
		if isDev(r.Context()) {
			env.Error = err.Error()
			env.Stack = string(debug.Stack())
		}
	}
	JSON(w, status, env)
}

// Fail writes a plain client error that has no domain error behind it.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}
