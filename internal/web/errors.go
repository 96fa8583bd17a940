package web

// errors.go provides unified error response handling for the web layer.
//
// Every failed request goes through respondError, which:
//  1. picks the status code from the error's type (StatusCode)
//  2. maps the error to a user message and support code (core.MapError)
//  3. logs the technical error with the request id for correlation
//  4. writes the user message as JSON

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/fundsheet/internal/core"
	"github.com/JonMunkholm/fundsheet/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
	Code     string `json:"code"`
	Row      int    `json:"row,omitempty"`
	Inserted *int   `json:"inserted,omitempty"`
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	var (
		ue  *core.UnsupportedFileTypeError
		fe  *core.FormatError
		ie  *core.InvalidCriteriaError
		ee  *core.EmptyResultError
		mbe *http.MaxBytesError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &ue), errors.As(err, &fe), errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &ee):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err server-side and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if core.IsCallerError(err) {
		// Caller mistakes are safe to echo; they name the file or the field.
		resp.Error = err.Error()
	}

	var pe *core.PersistenceError
	if errors.As(err, &pe) && pe.Row > 0 {
		inserted := pe.Inserted
		resp.Row = pe.Row
		resp.Inserted = &inserted
	}

	if errors.Is(err, core.ErrTooManyUploads) {
		w.Header().Set("Retry-After", "30")
	}
	writeJSONStatus(w, status, resp)
}

// writeError writes a plain JSON error for failures that never reach core,
// such as a missing form field.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Warn("request rejected",
		"path", r.URL.Path,
		"status", status,
		"error", message,
	)
	writeJSONStatus(w, status, ErrorResponse{Error: message, Message: message, Code: "REQ001"})
}

// writeJSON encodes v as a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; all that is left is to log.
		slog.Warn("json encode error", "error", err)
	}
}
