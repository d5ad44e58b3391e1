package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/logging"
	"github.com/juancollazo-ch/wbuy-order-resolver-service/internal/metrics"
)

// TraceHeader es el header de Cloud Run con el trace de la request
const TraceHeader = "X-Cloud-Trace-Context"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithLogging: logging con Trace ID compatible con GCP y latencia por ruta.
func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := TraceIDFromHeader(r.Header.Get(TraceHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx := logging.WithTraceID(r.Context(), traceID)

		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("httpRequest.requestMethod", r.Method),
			zap.String("httpRequest.requestUrl", r.URL.Path),
			zap.String("httpRequest.remoteIp", r.RemoteAddr),
			zap.String("httpRequest.userAgent", r.UserAgent()),
		}
		if trace := gcpTrace(traceID); trace != "" {
			fields = append(fields, zap.String("logging.googleapis.com/trace", trace))
		}
		zap.L().Info("Request started", fields...)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(duration.Seconds())

		zap.L().Info("Request completed",
			zap.String("trace_id", traceID),
			zap.String("httpRequest.requestMethod", r.Method),
			zap.String("httpRequest.requestUrl", r.URL.Path),
			zap.Int("httpRequest.status", rec.status),
			zap.Int64("httpRequest.latency.milliseconds", duration.Milliseconds()),
			zap.Float64("httpRequest.latency.seconds", duration.Seconds()),
		)
	})
}

// TraceIDFromHeader extrae TRACE_ID de "TRACE_ID/SPAN_ID;o=TRACE_TRUE".
func TraceIDFromHeader(header string) string {
	if i := strings.IndexByte(header, '/'); i != -1 {
		return header[:i]
	}
	if i := strings.IndexByte(header, ';'); i != -1 {
		return header[:i]
	}
	return header
}

func gcpTrace(traceID string) string {
	projectID := os.Getenv("GCP_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", projectID, traceID)
}
