// surodeals/handlers/admin.go

package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// HandleBlacklistWords returns the current banned-word list.
func HandleBlacklistWords(w http.ResponseWriter, r *http.Request, app App) {
	words, err := app.Blacklist().Words()
	if err != nil {
		app.Logger().Error("Failed to load blacklist", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"words": words}, app)
}

type blacklistRequest struct {
	Word string `json:"word"`
}

// HandleBlacklistAdd adds a word or phrase to the banned list.
func HandleBlacklistAdd(w http.ResponseWriter, r *http.Request, app App) {
	var req blacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		respondError(w, http.StatusBadRequest, "Word is required.", app)
		return
	}
	if err := app.Blacklist().Add(word); err != nil {
		app.Logger().Error("Failed to add blacklist word", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	app.Logger().Info("Blacklist word added", "word", word)
	respondJSON(w, http.StatusOK, map[string]string{"status": "added"}, app)
}

// HandleBlacklistRemove deletes a word from the banned list.
func HandleBlacklistRemove(w http.ResponseWriter, r *http.Request, app App) {
	var req blacklistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		respondError(w, http.StatusBadRequest, "Word is required.", app)
		return
	}
	if err := app.Blacklist().Remove(word); err != nil {
		app.Logger().Error("Failed to remove blacklist word", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	app.Logger().Info("Blacklist word removed", "word", word)
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"}, app)
}

// HandleBlockedAdLogs returns recent blocked-ad audit entries, newest first.
func HandleBlockedAdLogs(w http.ResponseWriter, r *http.Request, app App) {
	limit := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	entries := app.BlockedLog().GetBlockedAdLogs(limit)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}, app)
}

// HandleClearBlockedAdLogs wipes the blocked-ad audit file.
func HandleClearBlockedAdLogs(w http.ResponseWriter, r *http.Request, app App) {
	if err := app.BlockedLog().ClearBlockedAdLogs(); err != nil {
		app.Logger().Error("Failed to clear blocked-ad logs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear logs.", app)
		return
	}
	app.Logger().Info("Blocked-ad logs cleared")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, app)
}

// HandleBlockedAdStats reports the 24-hour blocked-ad count.
func HandleBlockedAdStats(w http.ResponseWriter, r *http.Request, app App) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blocked24h": app.BlockedLog().GetBlockedAdsCount24h(),
	}, app)
}

// HandleGetSettings returns all runtime settings.
func HandleGetSettings(w http.ResponseWriter, r *http.Request, app App) {
	settings, err := app.DB().AllSettings()
	if err != nil {
		app.Logger().Error("Failed to load settings", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}

// HandlePutSettings updates runtime settings. Unknown keys are rejected so a
// typo cannot silently create a dead setting.
func HandlePutSettings(w http.ResponseWriter, r *http.Request, app App) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}
	if len(req) == 0 {
		respondError(w, http.StatusBadRequest, "No settings provided.", app)
		return
	}
	for key, value := range req {
		if err := app.DB().SetSetting(key, value); err != nil {
			respondError(w, http.StatusBadRequest, "Unknown setting: "+key, app)
			return
		}
		app.Logger().Info("Setting updated", "key", key, "value", value)
	}
	settings, err := app.DB().AllSettings()
	if err != nil {
		app.Logger().Error("Failed to reload settings", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, settings, app)
}
