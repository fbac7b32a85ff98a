package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"

	"retail-ledger/internal/auth"
	"retail-ledger/internal/errors"
	"retail-ledger/internal/handler"
	"retail-ledger/internal/logging"
	"retail-ledger/internal/service"
)

// requestLogger stores a logger carrying the request id in the context and
// logs every completed request.
func requestLogger(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			reqLogger := logger.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("X-Request-ID", requestID)

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), reqLogger)))

			reqLogger.Info("request completed",
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// basicAuth resolves the caller from HTTP basic credentials.
func basicAuth(directory *service.DirectoryService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="retail-ledger"`)
				handler.WriteError(w, errors.ErrUnauthorized.WithDetails("basic credentials required"))
				return
			}

			principal, err := directory.PrincipalFor(r.Context(), username, password)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="retail-ledger"`)
				handler.WriteError(w, err)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			reqLogger := logging.FromContext(ctx, nil).With(slog.String("user_id", principal.UserID))
			ctx = logging.WithLogger(ctx, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimit rejects clients that exceed the configured rate, keyed by IP.
func rateLimit(instance *limiter.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context(), nil)
			ip := instance.GetIPKey(r)

			lctx, err := instance.Get(r.Context(), ip)
			if err != nil {
				logger.Error("Failed to get rate limit context", slog.String("ip", ip), slog.String("error", err.Error()))
				handler.WriteError(w, errors.NewAppError(errors.InternalError, "rate limit check failed"))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Warn("Rate limit exceeded", slog.String("ip", ip), slog.Int64("limit", lctx.Limit))
				handler.WriteError(w, errors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
