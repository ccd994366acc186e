package handlers

import (
	"net/http"
	"testing"
)

func TestCronAuth(t *testing.T) {
	app := setupTestApp(t)

	t.Run("missing token", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet, "/api/cron/status", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		headers := map[string]string{"Authorization": "Bearer wrong"}
		rec, _ := doJSON(t, app, http.MethodGet, "/api/cron/status", nil, headers)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("disabled when unconfigured", func(t *testing.T) {
		app.cronToken = ""
		defer func() { app.cronToken = "test-cron-token" }()
		headers := map[string]string{"Authorization": "Bearer "}
		rec, _ := doJSON(t, app, http.MethodGet, "/api/cron/status", nil, headers)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 with no configured token, got %d", rec.Code)
		}
	})
}

func TestCronEndpoints(t *testing.T) {
	app := setupTestApp(t)
	headers := map[string]string{"Authorization": "Bearer " + app.cronToken}

	t.Run("status lists all jobs", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, "/api/cron/status", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		jobs := body["jobs"].([]interface{})
		if len(jobs) != 5 {
			t.Errorf("expected 5 jobs, got %d", len(jobs))
		}
	})

	t.Run("trigger runs a job", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodPost, "/api/cron/daily-stats", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["name"] != "daily-stats" {
			t.Errorf("expected job bookkeeping in response, got %v", body)
		}
		if body["runs"].(float64) != 1 {
			t.Errorf("expected 1 recorded run, got %v", body["runs"])
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodPost, "/api/cron/format-disk", nil, headers)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("expiry sweep via endpoint", func(t *testing.T) {
		id := createApprovedAd(t, app, validAd())
		app.db.DB.Exec("UPDATE ads SET created_at = datetime('now', '-61 days') WHERE id = ?", id)

		rec, _ := doJSON(t, app, http.MethodPost, "/api/cron/check-expired", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		ad, err := app.db.GetAd(id)
		if err != nil {
			t.Fatalf("GetAd: %v", err)
		}
		if ad.Status != "expired" {
			t.Errorf("expected expired, got %s", ad.Status)
		}
	})
}
