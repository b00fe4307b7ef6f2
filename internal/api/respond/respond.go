// Package respond provides shared JSON response utilities for API handlers.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/albapepper/reportpush/internal/apperr"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends a structured error with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteAppError maps a pipeline error to its status and code. Internal
// errors are logged in full and answered with a generic message.
func WriteAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	var ae *apperr.Error
	if !errors.As(err, &ae) || kind == apperr.KindInternal {
		logger.Error("Request failed", "error", err)
		WriteError(w, status, kind.Code(), "Internal server error")
		return
	}

	var detail string
	if kind == apperr.KindAuth && ae.Status != 0 {
		detail = fmt.Sprintf("token endpoint returned status %d", ae.Status)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "kind", kind.String(), "error", err)
	}
	WriteErrorDetail(w, status, kind.Code(), ae.Message, detail)
}

// WriteJSONObject marshals a Go value to JSON and writes it.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
