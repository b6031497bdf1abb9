package api

import (
	"encoding/json"
	"net/http"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// Error codes returned in the "error" field of failed requests.
const (
	ErrCodeInvalidJSON          = "invalid_json"
	ErrCodeUnsupportedMediaType = "unsupported_media_type"
	ErrCodeInvalidMessage       = "invalid_message"
	ErrCodePayloadTooLarge      = "payload_too_large"
	ErrCodeTimeout              = "timeout"
	ErrCodeGenerationFailed     = "generation_failed"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, ErrorResponse{Error: code})
}
