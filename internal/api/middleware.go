package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/logging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/telemetry"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor is the authenticated caller. Role comes from the user directory,
// not from the token.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}

// AuthMiddleware validates the bearer token, looks up the caller's role
// and adds the Actor to the request context.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				jsonError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			role, err := store.GetUserRole(r.Context(), db, claims.UserID)
			if errors.Is(err, store.ErrNotFound) {
				jsonError(w, http.StatusUnauthorized, "unknown user")
				return
			}
			if err != nil {
				writeError(w, r, err)
				return
			}

			actor := &Actor{UserID: claims.UserID, Email: claims.Email, Role: role}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			ctx = logging.WithContext(ctx, logging.FromContext(ctx).With(zap.Int64("user_id", actor.UserID)))
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("enduser.id", actor.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that admits only callers holding one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return RequirePermission(func(role string) bool { return model.HasRole(role, roles...) })
}

// RequirePermission returns middleware that admits callers whose role
// satisfies allowed.
func RequirePermission(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r.Context())
			if actor == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !allowed(actor.Role) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetActor retrieves the authenticated caller from the context.
func GetActor(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey).(*Actor)
	return actor
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestIDMiddleware assigns each request an X-Request-ID and a logger
// carrying it.
func RequestIDMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.WithContext(r.Context(), logger.With(zap.String("request_id", requestID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.FromContext(r.Context()).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.RequestURI()),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		)
	})
}

var tracer = otel.Tracer("github.com/erazemk/zaloga/internal/api")

// TracingMiddleware starts a server span per request, continuing any trace
// propagated by the caller.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.Int("http.response.status_code", rec.status),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

// MetricsMiddleware records request counts and durations by route pattern.
// It must wrap the ServeMux directly so the matched pattern is visible.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		telemetry.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
