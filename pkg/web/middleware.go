package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abgdnv/stitchnstyle/pkg/auth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-Id"

// AuthMiddleware verifies the bearer token in the Authorization header and stores the
// caller's principal in the request context. Missing or invalid tokens get a 401 envelope.
func AuthMiddleware(verifier auth.Verifier, staff *auth.StaffDirectory, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				RespondFail(w, logger, KindUnauthorized, "Authorization header is required", nil)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				RespondFail(w, logger, KindUnauthorized, "Bearer token is required", nil)
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "token verification failed", "error", err)
				RespondFail(w, logger, KindUnauthorized, "Invalid token", nil)
				return
			}

			subject, ok := token.Subject()
			if !ok || subject == "" {
				RespondFail(w, logger, KindUnauthorized, "no claim `sub`", nil)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), staff.Principal(r.Context(), subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff rejects callers whose principal is not staff. It must run after AuthMiddleware.
func RequireStaff(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				RespondFail(w, logger, KindUnauthorized, "Unauthorized: missing user identity", nil)
				return
			}
			if !p.Staff {
				RespondFail(w, logger, KindForbidden, "Staff access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestIDInjector makes sure every request carries a request id in chi's context key
// and echoes it back in the X-Request-Id response header.
func RequestIDInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = r.Header.Get(HeaderRequestID)
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger creates a middleware that logs HTTP requests in a structured format.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.InfoContext(r.Context(), "Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes_written", ww.BytesWritten(),
					"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Recoverer is a middleware that recovers from panics and logs them using the provided logger.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.ErrorContext(r.Context(), "Panic recovered", "panic", rvr)
					RespondFail(w, logger, KindInternal, http.StatusText(http.StatusInternalServerError), nil)
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
