package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

// createApprovedAd posts an ad through the API and approves it with the
// moderation token. Returns the ad ID.
func createApprovedAd(t *testing.T, app *MockApplication, payload map[string]interface{}) int64 {
	t.Helper()
	rec, body := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ad creation failed: %d %s", rec.Code, rec.Body.String())
	}
	id := int64(body["id"].(float64))

	rec, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/ads/%d/approve?token=%s", id, app.approvalToken), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ad approval failed: %d %s", rec.Code, rec.Body.String())
	}
	return id
}

func TestCreateAd(t *testing.T) {
	app := setupTestApp(t)

	t.Run("pending by default", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["status"] != models.AdStatusPending {
			t.Errorf("expected pending status, got %v", body["status"])
		}
		if body["categorySlug"] != "autos" {
			t.Errorf("expected category slug echoed back, got %v", body["categorySlug"])
		}
	})

	t.Run("approved when approval disabled", func(t *testing.T) {
		if err := app.db.SetSetting("require_ad_approval", "false"); err != nil {
			t.Fatalf("SetSetting: %v", err)
		}
		defer app.db.SetSetting("require_ad_approval", "true")

		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if body["status"] != models.AdStatusApproved {
			t.Errorf("expected approved status, got %v", body["status"])
		}
	})

	t.Run("session attaches user", func(t *testing.T) {
		headers := adminHeaders(t, app)
		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), headers)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		var userID int64
		err := app.db.DB.QueryRow("SELECT user_id FROM ads WHERE id = ?", int64(body["id"].(float64))).Scan(&userID)
		if err != nil || userID == 0 {
			t.Errorf("expected ad linked to session user, got id=%d err=%v", userID, err)
		}
	})
}

func TestCreateAdValidation(t *testing.T) {
	app := setupTestApp(t)

	cases := []struct {
		name  string
		mut   func(m map[string]interface{})
		field string
	}{
		{"missing title", func(m map[string]interface{}) { m["title"] = "  " }, "title"},
		{"missing description", func(m map[string]interface{}) { m["description"] = "" }, "description"},
		{"negative price", func(m map[string]interface{}) { m["price"] = -1 }, "price"},
		{"bad currency", func(m map[string]interface{}) { m["currency"] = "USD" }, "currency"},
		{"unknown category", func(m map[string]interface{}) { m["categorySlug"] = "boten" }, "categorySlug"},
		{"missing location", func(m map[string]interface{}) { m["location"] = "" }, "location"},
		{"missing contact name", func(m map[string]interface{}) { m["contactName"] = "" }, "contactName"},
		{"bad contact email", func(m map[string]interface{}) { m["contactEmail"] = "not-an-email" }, "contactEmail"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := validAd()
			tc.mut(payload)
			rec, body := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if body["error"] != "validation" {
				t.Fatalf("expected validation error, got %v", body["error"])
			}
			fields := body["fields"].(map[string]interface{})
			if _, ok := fields[tc.field]; !ok {
				t.Errorf("expected problem on field %q, got %v", tc.field, fields)
			}
		})
	}

	t.Run("bunkopu seri price ceiling", func(t *testing.T) {
		headers := map[string]string{"X-Real-IP": "198.51.100.200"}
		payload := validAd()
		payload["categorySlug"] = "bunkopu-seri"
		payload["price"] = 1001
		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", payload, headers)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		fields := body["fields"].(map[string]interface{})
		if _, ok := fields["price"]; !ok {
			t.Errorf("expected price rejection, got %v", fields)
		}

		// The SRD ceiling is higher; the same numeric price passes.
		payload["currency"] = "SRD"
		rec, _ = doJSON(t, app, http.MethodPost, "/api/ads", payload, headers)
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201 under the SRD ceiling, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestCreateAdBlocked(t *testing.T) {
	app := setupTestApp(t)

	payload := validAd()
	payload["title"] = "Gratis gokken aanbieding"
	rec, body := doJSON(t, app, http.MethodPost, "/api/ads", payload, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body["error"] != "blocked" {
		t.Fatalf("expected blocked error, got %v", body["error"])
	}
	words := body["blockedWords"].([]interface{})
	if len(words) != 1 || words[0] != "gokken" {
		t.Errorf("expected blockedWords [gokken], got %v", words)
	}

	entries := app.blockedLog.GetBlockedAdLogs(10)
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0].Title != "Gratis gokken aanbieding" {
		t.Errorf("unexpected audit title %q", entries[0].Title)
	}
	if app.blockedLog.GetBlockedAdsCount24h() != 1 {
		t.Errorf("expected 24h count 1")
	}

	// Nothing reached the database.
	var count int
	app.db.DB.QueryRow("SELECT COUNT(*) FROM ads").Scan(&count)
	if count != 0 {
		t.Errorf("blocked ad must not be stored, found %d rows", count)
	}
}

func TestCreateAdRateLimit(t *testing.T) {
	app := setupTestApp(t)
	headers := map[string]string{"X-Real-IP": "198.51.100.7"}

	for i := 0; i < 10; i++ {
		rec, _ := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), headers)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, rec.Code)
		}
	}

	rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), headers)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body["error"] != "rate_limited" {
		t.Errorf("expected rate_limited error, got %v", body["error"])
	}
	if body["retryAfter"].(float64) < 1 {
		t.Errorf("expected positive retryAfter, got %v", body["retryAfter"])
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// A different client is unaffected.
	rec, _ = doJSON(t, app, http.MethodPost, "/api/ads", validAd(),
		map[string]string{"X-Real-IP": "198.51.100.8"})
	if rec.Code != http.StatusCreated {
		t.Errorf("other IP should not be limited, got %d", rec.Code)
	}
}

func TestAdDetail(t *testing.T) {
	app := setupTestApp(t)
	id := createApprovedAd(t, app, validAd())

	rec, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", id), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["views"].(float64) != 1 {
		t.Errorf("expected views 1 after first fetch, got %v", body["views"])
	}

	doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", id), nil, nil)
	_, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", id), nil, nil)
	if body["views"].(float64) != 3 {
		t.Errorf("expected views 3, got %v", body["views"])
	}

	t.Run("detail fetches count into daily stats", func(t *testing.T) {
		stats, err := app.db.GetDailyStats(utils.GetSQLTime())
		if err != nil {
			t.Fatalf("GetDailyStats: %v", err)
		}
		if stats.ViewsToday != 3 {
			t.Errorf("expected ViewsToday 3 after three detail fetches, got %d", stats.ViewsToday)
		}
	})

	t.Run("pending hidden from public", func(t *testing.T) {
		rec, pending := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		pendingID := int64(pending["id"].(float64))

		rec, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", pendingID), nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("pending ad should 404 for the public, got %d", rec.Code)
		}

		rec, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", pendingID), nil, adminHeaders(t, app))
		if rec.Code != http.StatusOK {
			t.Errorf("pending ad should be visible to admins, got %d", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet, "/api/ads/99999", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		rec, _ = doJSON(t, app, http.MethodGet, "/api/ads/abc", nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for non-numeric id, got %d", rec.Code)
		}
	})
}

func TestModerationDecisions(t *testing.T) {
	app := setupTestApp(t)

	rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	id := int64(body["id"].(float64))

	t.Run("requires token or admin", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d/approve", id), nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 without credentials, got %d", rec.Code)
		}
		rec, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d/approve?token=wrong", id), nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 with bad token, got %d", rec.Code)
		}
	})

	t.Run("approve via token is repeatable", func(t *testing.T) {
		url := fmt.Sprintf("/api/ads/%d/approve?token=%s", id, app.approvalToken)
		rec, body := doJSON(t, app, http.MethodGet, url, nil, nil)
		if rec.Code != http.StatusOK || body["status"] != models.AdStatusApproved {
			t.Fatalf("expected approved, got %d %v", rec.Code, body)
		}
		rec, _ = doJSON(t, app, http.MethodGet, url, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("re-approval should return 200, got %d", rec.Code)
		}
	})

	t.Run("reject via admin session", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d/reject", id), nil, adminHeaders(t, app))
		if rec.Code != http.StatusOK || body["status"] != models.AdStatusRejected {
			t.Errorf("expected rejected, got %d %v", rec.Code, body)
		}
	})

	t.Run("unknown ad", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/ads/99999/approve?token=%s", app.approvalToken), nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPublicListing(t *testing.T) {
	app := setupTestApp(t)

	carID := createApprovedAd(t, app, validAd())

	phone := validAd()
	phone["title"] = "Samsung Galaxy S21"
	phone["description"] = "Goede staat, met lader."
	phone["categorySlug"] = "telefoons"
	phone["location"] = "Lelydorp"
	phone["price"] = 30000
	phoneID := createApprovedAd(t, app, phone)

	// One pending ad that must stay invisible.
	doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)

	t.Run("approved only", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodGet, "/api/ads", nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if int(body["total"].(float64)) != 2 {
			t.Errorf("expected 2 visible ads, got %v", body["total"])
		}
	})

	t.Run("category filter", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/ads?category=telefoons", nil, nil)
		items := body["items"].([]interface{})
		if len(items) != 1 {
			t.Fatalf("expected 1 ad, got %d", len(items))
		}
		if int64(items[0].(map[string]interface{})["id"].(float64)) != phoneID {
			t.Errorf("expected phone ad in telefoons")
		}
	})

	t.Run("search", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/ads?search=corolla", nil, nil)
		items := body["items"].([]interface{})
		if len(items) != 1 || int64(items[0].(map[string]interface{})["id"].(float64)) != carID {
			t.Errorf("expected the Corolla ad, got %v", items)
		}
	})

	t.Run("price bounds", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/ads?maxPrice=50000", nil, nil)
		if int(body["total"].(float64)) != 1 {
			t.Errorf("expected 1 ad under 50000, got %v", body["total"])
		}
	})

	t.Run("location is case-insensitive", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/ads?location=LELYDORP", nil, nil)
		if int(body["total"].(float64)) != 1 {
			t.Errorf("expected 1 Lelydorp ad, got %v", body["total"])
		}
	})

	t.Run("dynamic keyword filter", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/ads?category=autos&brandstof=benzine", nil, nil)
		if int(body["total"].(float64)) != 1 {
			t.Errorf("expected 1 benzine ad, got %v", body["total"])
		}
		_, body = doJSON(t, app, http.MethodGet, "/api/ads?category=autos&brandstof=diesel", nil, nil)
		if int(body["total"].(float64)) != 0 {
			t.Errorf("expected no diesel ads, got %v", body["total"])
		}
	})
}

func TestContactAd(t *testing.T) {
	app := setupTestApp(t)
	id := createApprovedAd(t, app, validAd())

	message := map[string]interface{}{
		"senderName":  "K. Jagernath",
		"senderEmail": "buyer@example.com",
		"body":        "Is de auto nog beschikbaar?",
	}

	t.Run("stores message", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/ads/%d/contact", id), message, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if body["adId"].(float64) != float64(id) {
			t.Errorf("expected message bound to ad %d, got %v", id, body["adId"])
		}
		var count int
		app.db.DB.QueryRow("SELECT COUNT(*) FROM messages WHERE ad_id = ?", id).Scan(&count)
		if count != 1 {
			t.Errorf("expected 1 stored message, got %d", count)
		}
	})

	t.Run("validation", func(t *testing.T) {
		bad := map[string]interface{}{"senderName": "", "senderEmail": "nope", "body": ""}
		rec, body := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/ads/%d/contact", id), bad, nil)
		if rec.Code != http.StatusBadRequest || body["error"] != "validation" {
			t.Fatalf("expected validation 400, got %d %v", rec.Code, body)
		}
		fields := body["fields"].(map[string]interface{})
		for _, f := range []string{"senderName", "senderEmail", "body"} {
			if _, ok := fields[f]; !ok {
				t.Errorf("expected problem on %q", f)
			}
		}
	})

	t.Run("limiter", func(t *testing.T) {
		headers := map[string]string{"X-Real-IP": "203.0.113.50"}
		for i := 0; i < 3; i++ {
			rec, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/ads/%d/contact", id), message, headers)
			if rec.Code != http.StatusCreated {
				t.Fatalf("message %d: expected 201, got %d", i+1, rec.Code)
			}
		}
		rec, _ := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/ads/%d/contact", id), message, headers)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected 429 after 3 messages, got %d", rec.Code)
		}
	})

	t.Run("unapproved ad", func(t *testing.T) {
		rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		pendingID := int64(body["id"].(float64))
		rec, _ = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/ads/%d/contact", pendingID), message, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("contacting a pending ad should 404, got %d", rec.Code)
		}
	})
}

func TestAdminQueueAndDelete(t *testing.T) {
	app := setupTestApp(t)
	headers := adminHeaders(t, app)

	rec, body := doJSON(t, app, http.MethodPost, "/api/ads", validAd(), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	pendingID := int64(body["id"].(float64))
	approvedID := createApprovedAd(t, app, validAd())

	t.Run("requires admin session", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodGet, "/api/admin/ads", nil, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 without session, got %d", rec.Code)
		}
	})

	t.Run("queue defaults to pending", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/admin/ads", nil, headers)
		items := body["items"].([]interface{})
		if len(items) != 1 || int64(items[0].(map[string]interface{})["id"].(float64)) != pendingID {
			t.Errorf("expected only the pending ad, got %v", items)
		}
	})

	t.Run("status all lifts the filter", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodGet, "/api/admin/ads?status=all", nil, headers)
		if int(body["total"].(float64)) != 2 {
			t.Errorf("expected 2 ads, got %v", body["total"])
		}
	})

	t.Run("hard delete", func(t *testing.T) {
		rec, _ := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/ads/%d", approvedID), nil, headers)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rec, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/ads/%d", approvedID), nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("deleted ad should 404, got %d", rec.Code)
		}
		rec, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/admin/ads/%d", approvedID), nil, headers)
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete should 404, got %d", rec.Code)
		}
	})
}
