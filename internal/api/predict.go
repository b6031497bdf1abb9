package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gaspardpetit/chatpredict/internal/generator"
	"github.com/gaspardpetit/chatpredict/internal/logx"
	"github.com/gaspardpetit/chatpredict/internal/metrics"
)

// DefaultMaxBodyBytes bounds predict request bodies when no limit is set.
const DefaultMaxBodyBytes = 1 << 20

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Answer string `json:"answer"`
}

// PredictHandler serves POST /predict. It holds no per-request state.
type PredictHandler struct {
	Generator    generator.Generator
	Timeout      time.Duration
	MaxBodyBytes int64
	Metrics      *metrics.Metrics
}

type requestError struct {
	status int
	code   string
}

func (e *requestError) Error() string { return e.code }

func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := chiMiddleware.GetReqID(r.Context())
	message, err := h.decode(w, r)
	if err != nil {
		var re *requestError
		if !errors.As(err, &re) {
			re = &requestError{status: http.StatusBadRequest, code: ErrCodeInvalidJSON}
		}
		logx.Log.Warn().Str("request_id", reqID).Str("error", re.code).Msg("rejected predict request")
		h.Metrics.RecordPredict(re.code)
		writeError(w, re.status, re.code)
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	genID := uuid.NewString()
	logx.Log.Debug().Str("request_id", reqID).Str("generation_id", genID).Bool("has_message", message != nil).Msg("generate")
	answer, err := h.Generator.Generate(ctx, message)
	if err != nil {
		h.writeGenerateError(w, r, genID, err)
		return
	}
	h.Metrics.RecordPredict(generator.OutcomeSuccess)
	writeJSON(w, http.StatusOK, PredictResponse{Answer: answer})
}

// decode extracts the optional message from the request body. A missing key
// and an explicit null both yield nil.
func (h *PredictHandler) decode(w http.ResponseWriter, r *http.Request) (*string, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return nil, &requestError{status: http.StatusUnsupportedMediaType, code: ErrCodeUnsupportedMediaType}
	}
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, code: ErrCodePayloadTooLarge}
		}
		return nil, &requestError{status: http.StatusBadRequest, code: ErrCodeInvalidJSON}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, &requestError{status: http.StatusBadRequest, code: ErrCodeInvalidJSON}
	}
	raw, ok := payload["message"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		return nil, &requestError{status: http.StatusBadRequest, code: ErrCodeInvalidMessage}
	}
	return &message, nil
}

func (h *PredictHandler) writeGenerateError(w http.ResponseWriter, r *http.Request, genID string, err error) {
	reqID := chiMiddleware.GetReqID(r.Context())
	switch {
	case r.Context().Err() != nil:
		// client went away; nobody is left to read a response
		logx.Log.Debug().Str("request_id", reqID).Str("generation_id", genID).Err(err).Msg("client canceled")
		h.Metrics.RecordPredict("canceled")
	case errors.Is(err, context.DeadlineExceeded):
		logx.Log.Warn().Str("request_id", reqID).Str("generation_id", genID).Err(err).Msg("generation timeout")
		h.Metrics.RecordPredict(ErrCodeTimeout)
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout)
	default:
		logx.Log.Error().Str("request_id", reqID).Str("generation_id", genID).Err(err).Msg("generation failed")
		h.Metrics.RecordPredict(ErrCodeGenerationFailed)
		writeError(w, http.StatusInternalServerError, ErrCodeGenerationFailed)
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
