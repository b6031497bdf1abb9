package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// maxLoggedBody caps how much of a request or response body is logged.
const maxLoggedBody = 4 << 10

// MiddlewareChain returns the middlewares applied to every route.
func MiddlewareChain() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chiMiddleware.RequestID,
		chiMiddleware.Recoverer,
		requestLogger,
	}
}

// requestLogger logs one line per request at info. At debug it also logs
// headers and the first maxLoggedBody bytes of both bodies; the request body
// is handed on unchanged so handlers still apply their own limits.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lvl := zerolog.GlobalLevel()
		if lvl > zerolog.InfoLevel {
			next.ServeHTTP(w, r)
			return
		}
		reqID := chiMiddleware.GetReqID(r.Context())
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		var respBody *limitedBuffer
		if lvl <= zerolog.DebugLevel {
			logx.Log.Debug().Str("request_id", reqID).Str("method", r.Method).Str("url", r.URL.String()).
				Interface("headers", r.Header).Bytes("body", peekBody(r)).Msg("http request")
			respBody = &limitedBuffer{max: maxLoggedBody}
			ww.Tee(respBody)
		}

		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		ev := logx.Log.Info()
		if respBody != nil {
			ev = logx.Log.Debug().Interface("headers", ww.Header()).Bytes("body", respBody.Bytes())
		}
		ev.Str("request_id", reqID).Str("method", r.Method).Str("url", r.URL.String()).
			Int("status", status).Int("bytes", ww.BytesWritten()).Dur("elapsed", time.Since(start)).Msg("http")
	})
}

// peekBody reads up to maxLoggedBody bytes of the request body and puts them
// back in front of the unread remainder.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	if err != nil {
		logx.Log.Debug().Err(err).Msg("read request body for logging")
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// limitedBuffer keeps the first max bytes written to it and drops the rest.
type limitedBuffer struct {
	bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.Len(); room > 0 {
		if len(p) > room {
			_, _ = b.Buffer.Write(p[:room])
		} else {
			_, _ = b.Buffer.Write(p)
		}
	}
	return len(p), nil
}
