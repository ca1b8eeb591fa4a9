package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"spese-insights/internal/core"
	"spese-insights/internal/log"
)

// fallbackErrorMessage is used when a fault carries no message of its own.
const fallbackErrorMessage = "Failed to generate AI insights"

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", log.FieldError, err.Error())
	}
}

// statusForKind maps an error kind to its response status.
func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindInvalidFilter:
		return http.StatusBadRequest
	case core.KindGeneratorFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message","code"} with the status of its kind.
func writeError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fallbackErrorMessage
	}
	writeJSON(w, statusForKind(kind), errorBody{Message: msg, Code: string(kind)})
}
