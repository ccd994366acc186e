// surodeals/handlers/auth.go

package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and an initial session.
func HandleRegister(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleRegister")
	ip := utils.GetIPAddress(r)

	if ok, retryAfter := app.WindowLimiter().Allow(models.ScopeRegister, ip); !ok {
		logger.Warn("Registration rate limit exceeded", "ip_hash", utils.HashIP(ip))
		respondRateLimited(w, retryAfter, app)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}

	fields := make(map[string]string)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "A valid email address is required."
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "Name is required."
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters."
	}
	if len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation",
			"fields": fields,
		}, app)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error.", app)
		return
	}

	user, err := app.DB().CreateUser(req.Email, strings.TrimSpace(req.Name), hash)
	if err != nil {
		respondError(w, http.StatusConflict, "Email already registered.", app)
		return
	}

	session, err := app.DB().CreateSession(user.ID)
	if err != nil {
		logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}

	logger.Info("User registered", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": session.Token,
	}, app)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates and issues a session token. The login limiter
// only counts failures: a successful login clears the window so legitimate
// users cannot lock themselves out.
func HandleLogin(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleLogin")
	ip := utils.GetIPAddress(r)

	if ok, retryAfter := app.WindowLimiter().Allow(models.ScopeLogin, ip); !ok {
		logger.Warn("Login rate limit exceeded", "ip_hash", utils.HashIP(ip))
		respondRateLimited(w, retryAfter, app)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}

	user, err := app.DB().GetUserByEmail(req.Email)
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.Warn("Failed login attempt", "ip_hash", utils.HashIP(ip))
		respondError(w, http.StatusUnauthorized, "Invalid email or password.", app)
		return
	}

	app.WindowLimiter().Reset(models.ScopeLogin, ip)

	session, err := app.DB().CreateSession(user.ID)
	if err != nil {
		logger.Error("Failed to create session", "user_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}

	logger.Info("User logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": session.Token,
	}, app)
}

// HandleLogout invalidates the presented session token. Idempotent.
func HandleLogout(w http.ResponseWriter, r *http.Request, app App) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required.", app)
		return
	}
	if err := app.DB().DeleteSession(token); err != nil {
		app.Logger().Error("Failed to delete session", "error", err)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"}, app)
}
