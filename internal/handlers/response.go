package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// WriteJSON writes v as a JSON body with the given status. The body is
// encoded before any header is sent, so an unencodable value becomes a 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("encoding JSON response",
			zap.Int("status", status),
			zap.Error(err),
		)
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// WriteError writes a standardised JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{
		"error": msg,
	})
}
