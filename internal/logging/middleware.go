// ABOUTME: HTTP request logging middleware for the mock generation server.
// ABOUTME: Captures method, route, status, duration and a capped response excerpt via zap.

package logging

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/auth"
)

const maxBodySize = 10 * 1024 // 10KB limit for body capture

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	size       int
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	// Capture response body (up to maxBodySize)
	if rw.body.Len() < maxBodySize {
		toCopy := len(b)
		if rw.body.Len()+toCopy > maxBodySize {
			toCopy = maxBodySize - rw.body.Len()
		}
		rw.body.Write(b[:toCopy])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// RouteName classifies a request path for log grouping.
func RouteName(path string) string {
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		return "chat"
	case path == "/healthz":
		return "health"
	case strings.HasSuffix(path, "/models"):
		return "models"
	default:
		return "unknown"
	}
}

// Middleware logs every request except health checks.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     200,
				body:           &bytes.Buffer{},
			}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("route", RouteName(r.URL.Path)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Int("bytes", wrapped.size),
				zap.Duration("duration", time.Since(start)),
				zap.Bool("authenticated", auth.TokenFromContext(r.Context()) != ""),
			}
			if wrapped.statusCode >= 400 {
				logger.Warn("request failed", append(fields, zap.String("response", wrapped.body.String()))...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}
