package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func withLogLevel(t *testing.T, lvl zerolog.Level) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(lvl)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func chain(h http.Handler) http.Handler {
	mws := MiddlewareChain()
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = chiMiddleware.GetReqID(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if captured == "" {
		t.Fatalf("missing request id")
	}
}

func TestRecovererMiddleware(t *testing.T) {
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestLoggingWriterKeepsStatus(t *testing.T) {
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
}

func TestDebugLoggingPreservesBody(t *testing.T) {
	withLogLevel(t, zerolog.DebugLevel)
	payload := bytes.Repeat([]byte("x"), 16*maxLoggedBody)
	var got []byte
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload)))
	if !bytes.Equal(got, payload) {
		t.Fatalf("handler saw %d bytes; want %d", len(got), len(payload))
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("response body = %q", rr.Body.String())
	}
}

func TestDebugLoggingKeepsBodyLimit(t *testing.T) {
	withLogLevel(t, zerolog.DebugLevel)
	h := chain(&PredictHandler{Generator: &fakeGenerator{}, MaxBodyBytes: 16})
	body := `{"message": "` + strings.Repeat("a", 2*maxLoggedBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestPeekBodyIsBounded(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("y", 3*maxLoggedBody)))
	if head := peekBody(req); len(head) != maxLoggedBody {
		t.Fatalf("peeked %d bytes; want %d", len(head), maxLoggedBody)
	}
	rest, _ := io.ReadAll(req.Body)
	if len(rest) != 3*maxLoggedBody {
		t.Fatalf("body after peek = %d bytes", len(rest))
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{max: 4}
	if n, err := b.Write([]byte("abcdef")); n != 6 || err != nil {
		t.Fatalf("Write = %d, %v", n, err)
	}
	_, _ = b.Write([]byte("gh"))
	if b.String() != "abcd" {
		t.Fatalf("buffer = %q", b.String())
	}
}
