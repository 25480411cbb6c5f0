package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"happy-sandwich/logger"
)

const (
	accessKeyHeader = "X-Access-Key"
	requestIDHeader = "X-Request-ID"
)

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logger.GenerateRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.log.Log(r.Context(), level, "request completed",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// requireAccessKey rejects requests whose X-Access-Key does not match. With no
// key configured everything goes through. Repeated wrong keys from one client
// address are answered with 429 until the cooldown runs out.
func (s *Server) requireAccessKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.accessKeyRequired() {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get(accessKeyHeader)
		if got == "" {
			writeError(w, http.StatusUnauthorized, "Invalid access key")
			return
		}
		client := clientAddr(r)
		if wait := s.throttle.wait(client); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "Too many invalid access key attempts, try again later")
			return
		}
		if !s.accessKeyMatches(got) {
			s.throttle.failed(client)
			s.log.Warn("invalid access key",
				slog.String("request_id", requestID(r.Context())),
				slog.String("client", client),
				slog.String("path", r.URL.Path),
			)
			writeError(w, http.StatusUnauthorized, "Invalid access key")
			return
		}
		s.throttle.succeeded(client)
		next.ServeHTTP(w, r)
	})
}
