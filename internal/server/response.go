package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tartampluch/go-keepintouch/internal/config"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err)
	}
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, Response{
		Success: false,
		Error:   &ErrorInfo{Message: message, Code: code},
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message, config.HTTPCodeBadRequest)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message, config.HTTPCodeNotFound)
}

func writeNotReady(w http.ResponseWriter) {
	w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
	writeError(w, http.StatusServiceUnavailable, config.HTTPMsgInitializing, config.HTTPCodeNotReady)
}

func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, config.HTTPMsgInternalErr, config.HTTPCodeInternal)
}
