package middleware

import (
	"net/http"
	"time"

	"ponydocs/pkg/common"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger creates a logging middleware
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())
			ctx := common.EnrichContext(r.Context(), requestID)
			if traceID := r.Header.Get("X-Amzn-Trace-Id"); traceID != "" {
				ctx = common.WithTraceID(ctx, traceID)
			}
			r = r.WithContext(ctx)

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			meta := common.ExtractMetadata(r.Context())
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", meta.RequestID),
				zap.String("remoteAddr", r.RemoteAddr),
			}
			if meta.TraceID != "" {
				fields = append(fields, zap.String("traceID", meta.TraceID))
			}
			if meta.Product != "" {
				fields = append(fields, zap.String("product", meta.Product))
			}

			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn("HTTP Request", fields...)
			} else {
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}
