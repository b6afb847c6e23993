package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode enum for machine-readable errors
type ErrorCode string

const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConflict     ErrorCode = "CONFLICT" // e.g. concurrent submit with the same key
	ErrInternal     ErrorCode = "INTERNAL" // DB died, NATS down
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
)

// AppError carries the "User View" and the "System View"
type AppError struct {
	Code     ErrorCode // Machine code (for frontend logic)
	Message  string    // Safe user-facing message
	Internal error     // Original error (DB error, etc) - NEVER show to user
	Stack    string    // Stack trace for audit
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// New factory to capture stack trace automatically
func New(code ErrorCode, msg string, internal error) *AppError {
	return &AppError{
		Code:     code,
		Message:  msg,
		Internal: internal,
		Stack:    string(debug.Stack()),
	}
}

func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var appErr *AppError
	if customErr, ok := err.(*AppError); ok {
		appErr = customErr
	} else {
		// Generic Go error (e.g. from a library), wrap it as Internal
		appErr = New(ErrInternal, "Unexpected system error", err)
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case ErrInvalidInput:
		status = http.StatusBadRequest
	case ErrConflict:
		status = http.StatusConflict
	case ErrUnauthorized:
		status = http.StatusUnauthorized
	case ErrNotFound:
		status = http.StatusNotFound
	}

	logFields := []any{
		"req_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"code", appErr.Code,
		"user_msg", appErr.Message,
	}

	if status == http.StatusInternalServerError {
		// For 5xx log everything, stack included
		logFields = append(logFields, "internal_err", appErr.Internal, "stack", appErr.Stack)
		slog.Error("Internal Server Error", logFields...)
	} else {
		if appErr.Internal != nil {
			logFields = append(logFields, "internal_details", appErr.Internal)
		}
		slog.Warn("Request Failed", logFields...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error_code": string(appErr.Code),
		"message":    appErr.Message,
		"request_id": reqID, // Helpful for support tickets
	})
}
