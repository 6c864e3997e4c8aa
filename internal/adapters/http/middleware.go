package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Samuel871933/buylav2-sub001/internal/application"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func recoverMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"module", "http.middleware",
						"layer", "adapter",
						"operation", "recover",
						"outcome", "failure",
						"panic", fmt.Sprintf("%v", rec),
						"path", r.URL.Path,
					)
					writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.InfoContext(r.Context(), "request completed",
				"module", "http.middleware",
				"layer", "adapter",
				"operation", "serve",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestIDFromContext(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// authMiddleware resolves the caller from the bearer token. With a JWT
// secret configured tokens are verified HS256 and the subject and role
// come from the claims; without one the token is treated as an opaque
// subject id with the role taken from the X-Actor-Role header.
func authMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			raw := strings.TrimSpace(auth[7:])
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "empty bearer token")
				return
			}

			var subject, role string
			if jwtSecret != "" {
				claims := jwt.MapClaims{}
				_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
					if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
						return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
					}
					return []byte(jwtSecret), nil
				}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
				if err != nil {
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
					return
				}
				subject = stringClaim(claims, "sub")
				role = stringClaim(claims, "role")
			} else {
				subject = raw
				role = strings.ToLower(strings.TrimSpace(r.Header.Get("X-Actor-Role")))
			}
			if subject == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "token missing subject")
				return
			}
			if role == "" {
				role = "buyer"
			}
			actor := application.Actor{
				SubjectID: subject,
				Role:      role,
				RequestID: requestIDFromContext(r.Context()),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func actorFromContext(ctx context.Context) application.Actor {
	if v := ctx.Value(actorKey); v != nil {
		if a, ok := v.(application.Actor); ok {
			return a
		}
	}
	return application.Actor{}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
