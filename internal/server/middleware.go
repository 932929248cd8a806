package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/tinderito/internal/auth"
	svcErr "github.com/oggyb/tinderito/internal/errors"
	"github.com/oggyb/tinderito/internal/logger"
	"github.com/oggyb/tinderito/internal/utils/respond"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates a UUID, echoes it
// back and stores it in the context so every log line carries it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Logging writes one access-log record per request. The level follows the
// status: 5xx error, 4xx warn, everything else info.
func Logging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			log.Log(r.Context(), level, "http request", slog.Group("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			))
		})
	}
}

// Rescue recovers handler panics, logs the stack and answers 500.
func Rescue(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.ErrorContext(r.Context(), "request panic",
						slog.Group("http", "method", r.Method, "path", r.URL.Path),
						slog.Group("error", "panic", p, "stack", string(debug.Stack())),
					)
					respond.Error(w, r, nil, svcErr.Internal())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate verifies "Authorization: Bearer <jwt>" and stores the user id
// in the context. Invalid tokens are rejected with 401. Missing tokens are
// rejected only when enforce is set and the path is not public.
func Authenticate(tokens *auth.Issuer, enforce bool, public func(path string) bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				if enforce {
					respond.Error(w, r, log, svcErr.Unauthenticated("missing bearer token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				respond.Error(w, r, log, svcErr.Unauthenticated("malformed authorization header"))
				return
			}
			userID, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				log.WarnContext(r.Context(), "rejected token", "err", err)
				respond.Error(w, r, log, svcErr.Unauthenticated("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
