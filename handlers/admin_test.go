package handlers

import (
	"net/http"
	"testing"
)

func TestAdminAuth(t *testing.T) {
	app := setupTestApp(t)

	t.Run("no session", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet, "/api/admin/settings", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("non-admin session", func(t *testing.T) {
		register := map[string]interface{}{
			"email":    "gewoon@example.com",
			"name":     "Gewone Gebruiker",
			"password": "wachtwoord123",
		}
		rec, body := doJSON(t, app, http.MethodPost, "/api/auth/register", register, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("registration failed: %d", rec.Code)
		}
		headers := map[string]string{"Authorization": "Bearer " + body["token"].(string)}
		rec, _ = doJSON(t, app, http.MethodGet, "/api/admin/settings", nil, headers)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for non-admin, got %d", rec.Code)
		}
	})
}

func TestBlacklistAdmin(t *testing.T) {
	app := setupTestApp(t)
	headers := adminHeaders(t, app)

	t.Run("list seeded words", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, "/api/admin/blacklist", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		words := body["words"].([]interface{})
		if len(words) == 0 {
			t.Fatal("expected seeded words")
		}
	})

	t.Run("add takes effect immediately", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodPost, "/api/admin/blacklist/add",
			map[string]interface{}{"word": "oplichting"}, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		payload := validAd()
		payload["title"] = "Geen oplichting hier"
		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
		if rec.Code != http.StatusBadRequest || body["error"] != "blocked" {
			t.Errorf("new word should block ads, got %d %v", rec.Code, body)
		}
	})

	t.Run("remove takes effect immediately", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodPost, "/api/admin/blacklist/remove",
			map[string]interface{}{"word": "oplichting"}, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		payload := validAd()
		payload["title"] = "Geen oplichting hier"
		rec, _ = doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
		if rec.Code != http.StatusCreated {
			t.Errorf("removed word should no longer block, got %d", rec.Code)
		}
	})

	t.Run("empty word rejected", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodPost, "/api/admin/blacklist/add",
			map[string]interface{}{"word": "  "}, headers)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBlockedAdLogsAdmin(t *testing.T) {
	app := setupTestApp(t)
	headers := adminHeaders(t, app)

	// Produce two audit entries.
	for _, title := range []string{"Casino avond", "Gokken voor geld"} {
		payload := validAd()
		payload["title"] = title
		rec, _ := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected blocked ad, got %d", rec.Code)
		}
	}

	t.Run("logs newest first", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, "/api/admin/blocked-ads/logs", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		entries := body["entries"].([]interface{})
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
	})

	t.Run("limit", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/admin/blocked-ads/logs?limit=1", nil, headers)
		if len(body["entries"].([]interface{})) != 1 {
			t.Error("expected a single entry with limit=1")
		}
	})

	t.Run("stats", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/admin/blocked-ads/stats", nil, headers)
		if body["blocked24h"].(float64) != 2 {
			t.Errorf("expected blocked24h 2, got %v", body["blocked24h"])
		}
	})

	t.Run("clear", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodDelete, "/api/admin/blocked-ads/logs", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		_, body := doJSON(t, app, http.MethodGet, "/api/admin/blocked-ads/logs", nil, headers)
		if len(body["entries"].([]interface{})) != 0 {
			t.Error("expected no entries after clear")
		}
	})
}

func TestSettingsAdmin(t *testing.T) {
	app := setupTestApp(t)
	headers := adminHeaders(t, app)

	t.Run("get defaults", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, "/api/admin/settings", nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["require_ad_approval"] != "true" {
			t.Errorf("expected require_ad_approval true, got %v", body["require_ad_approval"])
		}
		if body["blocked_ad_logging"] != "true" {
			t.Errorf("expected blocked_ad_logging true, got %v", body["blocked_ad_logging"])
		}
	})

	t.Run("update", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodPut, "/api/admin/settings",
			map[string]string{"require_ad_approval": "false"}, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body["require_ad_approval"] != "false" {
			t.Errorf("expected updated value in response, got %v", body["require_ad_approval"])
		}
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodPut, "/api/admin/settings",
			map[string]string{"tyop": "true"}, headers)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for unknown key, got %d", rec.Code)
		}
	})

	t.Run("logging toggle silences the audit file", func(t *testing.T) {
		if rec, _ := doJSON(t, app, http.MethodPut, "/api/admin/settings",
			map[string]string{"blocked_ad_logging": "false"}, headers); rec.Code != http.StatusOK {
			t.Fatalf("failed to disable logging: %d", rec.Code)
		}

		payload := validAd()
		payload["title"] = "Casino bonus"
		rec, _ := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected blocked ad, got %d", rec.Code)
		}
		if got := app.blockedLog.GetBlockedAdsCount24h(); got != 0 {
			t.Errorf("expected no audit entries while disabled, got %d", got)
		}
	})
}
