package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type APIResponse struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Hint       string `json:"hint,omitempty"`
	Error      string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		StatusCode: status,
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
	})
}

// RespondError logs err and writes it as an ErrorResponse. The wrapped
// cause is only included when exposeCause is set.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, exposeCause bool) {
	appErr := AsAppError(err)
	status := appErr.Kind.StatusCode()
	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"kind", appErr.Kind.String(),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), appErr.Message, attrs...)
	} else {
		logger.DebugContext(r.Context(), appErr.Message, attrs...)
	}

	resp := ErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    appErr.Message,
		Hint:       appErr.Hint,
	}
	if exposeCause && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
