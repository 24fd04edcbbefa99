package middleware

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDKey contextKey = "request_id"
	LoggerKey    contextKey = "logger"

	RequestIDHeader = "X-Request-ID"
)

type RequestLoggerMiddleware struct {
	log *logrus.Logger
}

func NewRequestLoggerMiddleware(log *logrus.Logger) *RequestLoggerMiddleware {
	return &RequestLoggerMiddleware{log: log}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Handle tags every request with an id (taken from X-Request-ID when present) and
// logs method, path, status and latency once the handler returns.
func (m *RequestLoggerMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		entry := m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = context.WithValue(ctx, LoggerKey, entry)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(ctx))

		entry = entry.WithFields(logrus.Fields{
			"status":     recorder.status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case recorder.status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case recorder.status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	})
}

// GetRequestIDFromContext extracts the request id from context
func GetRequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	return requestID, ok
}

// GetLoggerFromContext returns the request-scoped log entry, nil outside a request
func GetLoggerFromContext(ctx context.Context) *logrus.Entry {
	entry, _ := ctx.Value(LoggerKey).(*logrus.Entry)
	return entry
}
