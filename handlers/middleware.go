// surodeals/handlers/middleware.go

package handlers

import (
	"bufio"
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionUserKey holds the *models.User resolved from a session token.
	SessionUserKey ContextKey = "sessionUser"
)

// NewStructuredLogger logs one line per request with method, path, status,
// duration and the client IP hash.
func NewStructuredLogger(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := utils.GetTime()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			app.Logger().Info("Request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"ip_hash", utils.HashIP(utils.GetIPAddress(r)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("response writer does not support hijacking")
}

// GlobalRateLimit applies the per-IP token bucket to every API request.
func GlobalRateLimit(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.GetIPAddress(r)
			if !app.RateLimiter().GetLimiter(ip).Allow() {
				respondRateLimited(w, time.Second, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionUser resolves the Bearer session token on r, if any.
func sessionUser(r *http.Request, app App) *models.User {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return nil
	}
	user, err := app.DB().GetSessionUser(token)
	if err != nil {
		return nil
	}
	return user
}

// RequireAdmin restricts a route subtree to sessions of is_admin users.
func RequireAdmin(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := sessionUser(r, app)
			if user == nil {
				respondError(w, http.StatusUnauthorized, "Authentication required.", app)
				return
			}
			if !user.IsAdmin {
				respondError(w, http.StatusForbidden, "Admin access required.", app)
				return
			}
			ctx := context.WithValue(r.Context(), SessionUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCronToken guards the cron endpoints with the static bearer token.
// An empty configured token disables the endpoints entirely.
func RequireCronToken(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			want := app.CronToken()
			if want == "" {
				respondError(w, http.StatusForbidden, "Cron endpoints are disabled.", app)
				return
			}
			auth := r.Header.Get("Authorization")
			got, _ := strings.CutPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				respondError(w, http.StatusUnauthorized, "Invalid cron token.", app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
