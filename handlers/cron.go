// surodeals/handlers/cron.go

package handlers

import (
	"net/http"

	"github.com/Hokky66/Surodeals/cron"

	"github.com/go-chi/chi/v5"
)

// HandleCronTrigger runs one maintenance job to completion and returns its
// updated bookkeeping. Job failures are recorded in lastError, not the
// response status.
func HandleCronTrigger(w http.ResponseWriter, r *http.Request, app App) {
	name := chi.URLParam(r, "jobName")
	if !cron.ValidJobName(name) {
		respondError(w, http.StatusNotFound, "Unknown job.", app)
		return
	}
	if err := app.Scheduler().Trigger(name); err != nil {
		app.Logger().Error("Failed to trigger job", "job", name, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to trigger job.", app)
		return
	}

	for _, status := range app.Scheduler().Status() {
		if status.Name == name {
			respondJSON(w, http.StatusOK, status, app)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "completed", "job": name}, app)
}

// HandleCronStatus reports the bookkeeping for every registered job.
func HandleCronStatus(w http.ResponseWriter, r *http.Request, app App) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": app.Scheduler().Status(),
	}, app)
}
