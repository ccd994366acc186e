// surodeals/handlers/handlers.go

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Hokky66/Surodeals/cron"
	"github.com/Hokky66/Surodeals/database"
	"github.com/Hokky66/Surodeals/filters"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/moderation"
)

// App is an interface that defines the dependencies our handlers need.
type App interface {
	DB() *database.DatabaseService
	RateLimiter() *models.RateLimiter
	WindowLimiter() *models.WindowLimiter
	Blacklist() *moderation.Blacklist
	BlockedLog() *moderation.BlockedAdLogger
	Filters() *filters.Generator
	Scheduler() *cron.Scheduler
	Logger() *slog.Logger
	CronToken() string
	ApprovalToken() string
}

// respondJSON sends a JSON response with a given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}, app App) {
	response, err := json.Marshal(payload)
	if err != nil {
		app.Logger().Error("Failed to marshal JSON payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte(`{"error":"Failed to marshal JSON response"}`)); werr != nil {
			app.Logger().Error("Failed to write internal server error response", "error", werr)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		app.Logger().Error("Failed to write JSON response", "error", err)
	}
}

// respondError sends the standard {"error": ...} body.
func respondError(w http.ResponseWriter, status int, message string, app App) {
	respondJSON(w, status, map[string]string{"error": message}, app)
}

// respondRateLimited sends the 429 body with a Retry-After header and the
// remaining wait in whole seconds (rounded up so clients never retry early).
func respondRateLimited(w http.ResponseWriter, retryAfter time.Duration, app App) {
	seconds := int(retryAfter.Seconds())
	if retryAfter > time.Duration(seconds)*time.Second {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":      "rate_limited",
		"message":    "Too many requests. Please wait and try again.",
		"retryAfter": seconds,
	}, app)
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields
// and trailing garbage.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// MakeHandler adapts a handler taking the App interface into http.HandlerFunc.
func MakeHandler(app App, fn func(http.ResponseWriter, *http.Request, App)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, app)
	}
}

// HandleHealth reports liveness plus a database ping.
func HandleHealth(w http.ResponseWriter, r *http.Request, app App) {
	if err := app.DB().DB.Ping(); err != nil {
		app.Logger().Error("Health check database ping failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"}, app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, app)
}
