// surodeals/handlers/ads.go

package handlers

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/database"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"

	"github.com/go-chi/chi/v5"
)

type createAdRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        int64    `json:"price"`
	Currency     string   `json:"currency"`
	CategorySlug string   `json:"categorySlug"`
	Location     string   `json:"location"`
	ContactName  string   `json:"contactName"`
	ContactPhone string   `json:"contactPhone"`
	ContactEmail string   `json:"contactEmail"`
	ImageURLs    []string `json:"imageUrls"`
}

// validate returns field-level problems keyed by JSON field name.
func (req *createAdRequest) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required."
	} else if len(req.Title) > config.MaxTitleLen {
		fields["title"] = "Title is too long."
	}
	if strings.TrimSpace(req.Description) == "" {
		fields["description"] = "Description is required."
	} else if len(req.Description) > config.MaxDescriptionLen {
		fields["description"] = "Description is too long."
	}
	if req.Price < 0 {
		fields["price"] = "Price cannot be negative."
	}
	if req.Currency != models.CurrencyEUR && req.Currency != models.CurrencySRD {
		fields["currency"] = "Currency must be EUR or SRD."
	}
	if strings.TrimSpace(req.CategorySlug) == "" {
		fields["categorySlug"] = "Category is required."
	}
	if strings.TrimSpace(req.Location) == "" {
		fields["location"] = "Location is required."
	} else if len(req.Location) > config.MaxLocationLen {
		fields["location"] = "Location is too long."
	}
	if strings.TrimSpace(req.ContactName) == "" {
		fields["contactName"] = "Contact name is required."
	} else if len(req.ContactName) > config.MaxContactLen {
		fields["contactName"] = "Contact name is too long."
	}
	if req.ContactEmail != "" {
		if _, err := mail.ParseAddress(req.ContactEmail); err != nil {
			fields["contactEmail"] = "Contact email is not a valid address."
		}
	}
	if len(req.ImageURLs) > config.MaxImageURLs {
		fields["imageUrls"] = "Too many image URLs."
	}
	return fields
}

// HandleCreateAd is the main handler for posting a new classified ad.
func HandleCreateAd(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleCreateAd")
	ip := utils.GetIPAddress(r)

	if ok, retryAfter := app.WindowLimiter().Allow(models.ScopeAdCreate, ip); !ok {
		logger.Warn("Ad creation rate limit exceeded", "ip_hash", utils.HashIP(ip))
		respondRateLimited(w, retryAfter, app)
		return
	}

	var req createAdRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}

	fields := req.validate()
	var categoryID int64
	if _, bad := fields["categorySlug"]; !bad {
		id, err := app.DB().GetCategoryID(req.CategorySlug)
		if err != nil {
			fields["categorySlug"] = "Unknown category."
		} else {
			categoryID = id
		}
	}
	if _, bad := fields["price"]; !bad && req.CategorySlug == config.BunkopuSeriSlug {
		ceiling := int64(config.BunkopuSeriCapEUR)
		if req.Currency == models.CurrencySRD {
			ceiling = config.BunkopuSeriCapSRD
		}
		if req.Price > ceiling {
			fields["price"] = "Bunkopu Seri ads cannot exceed the category price ceiling."
		}
	}
	if len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation",
			"fields": fields,
		}, app)
		return
	}

	check, err := app.Blacklist().CheckAdContent(req.Title, req.Description)
	if err != nil {
		logger.Error("Blacklist check failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Moderation check failed.", app)
		return
	}
	if !check.Allowed {
		app.BlockedLog().LogBlockedAd(ip, req.Title, req.Description, check.BlockedWords, r.UserAgent())
		logger.Warn("Ad blocked by word filter", "ip_hash", utils.HashIP(ip), "words", check.BlockedWords)
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":        "blocked",
			"blockedWords": check.BlockedWords,
		}, app)
		return
	}

	status := models.AdStatusApproved
	if app.DB().GetBoolSetting(database.SettingRequireAdApproval) {
		status = models.AdStatusPending
	}

	ad := &models.Ad{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		CategoryID:   categoryID,
		Location:     strings.TrimSpace(req.Location),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ImageURLs:    req.ImageURLs,
		Status:       status,
	}
	if user := sessionUser(r, app); user != nil {
		ad.UserID = sql.NullInt64{Int64: user.ID, Valid: true}
	}

	if err := app.DB().CreateAd(ad); err != nil {
		logger.Error("Failed to create ad", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	ad.CategorySlug = req.CategorySlug

	app.DB().RecordEvent(database.EventAdCreated, ad.ID, utils.HashIP(ip))
	logger.Info("Ad created", "ad_id", ad.ID, "status", ad.Status, "category", req.CategorySlug)
	respondJSON(w, http.StatusCreated, ad, app)
}

// parseAdQuery translates listing query parameters. Status handling differs
// between the public and admin listings, so the caller supplies it.
func parseAdQuery(r *http.Request) models.AdQuery {
	q := r.URL.Query()
	query := models.AdQuery{
		Search:       strings.TrimSpace(q.Get("search")),
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Location:     strings.TrimSpace(q.Get("location")),
		Currency:     strings.TrimSpace(q.Get("currency")),
	}
	if query.Search == "" {
		query.Search = strings.TrimSpace(q.Get("q"))
	}
	for _, raw := range q["categoryId"] {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			query.CategoryIDs = append(query.CategoryIDs, id)
		}
	}
	if v, err := strconv.ParseInt(q.Get("minPrice"), 10, 64); err == nil && v > 0 {
		query.MinPrice = v
	}
	if v, err := strconv.ParseInt(q.Get("maxPrice"), 10, 64); err == nil && v > 0 {
		query.MaxPrice = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		query.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		query.Offset = v
	}
	// Dynamic filter keys carry keyword values matched against ad text.
	for _, key := range []string{"merk", "brandstof", "transmissie", "conditie", "maat"} {
		for _, val := range q[key] {
			if val = strings.TrimSpace(val); val != "" {
				query.Keywords = append(query.Keywords, val)
			}
		}
	}
	return query
}

// HandleListAds serves the public, approved-only listing.
func HandleListAds(w http.ResponseWriter, r *http.Request, app App) {
	query := parseAdQuery(r)
	query.Status = "" // approved-only

	list, err := app.DB().ListAds(query)
	if err != nil {
		app.Logger().Error("Failed to list ads", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, list, app)
}

// adIDParam parses the {adID} URL parameter.
func adIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "adID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid ad id")
	}
	return id, nil
}

// HandleGetAd serves the detail view, counts the view and records analytics.
func HandleGetAd(w http.ResponseWriter, r *http.Request, app App) {
	id, err := adIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ad id.", app)
		return
	}

	ad, err := app.DB().GetAd(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Ad not found.", app)
		return
	}
	// Non-approved ads are only visible to admins.
	if ad.Status != models.AdStatusApproved {
		user := sessionUser(r, app)
		if user == nil || !user.IsAdmin {
			respondError(w, http.StatusNotFound, "Ad not found.", app)
			return
		}
	}

	if err := app.DB().IncrementViews(id); err != nil {
		app.Logger().Error("Failed to increment views", "ad_id", id, "error", err)
	} else {
		ad.Views++
	}
	app.DB().RecordEvent(database.EventAdViewed, id, utils.HashIP(utils.GetIPAddress(r)))

	respondJSON(w, http.StatusOK, ad, app)
}

type contactRequest struct {
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	Body        string `json:"body"`
}

// HandleContactAd stores a contact message for the advertiser.
func HandleContactAd(w http.ResponseWriter, r *http.Request, app App) {
	logger := app.Logger().With("handler", "HandleContactAd")
	ip := utils.GetIPAddress(r)

	id, err := adIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ad id.", app)
		return
	}

	if ok, retryAfter := app.WindowLimiter().Allow(models.ScopeContact, ip); !ok {
		logger.Warn("Contact rate limit exceeded", "ip_hash", utils.HashIP(ip))
		respondRateLimited(w, retryAfter, app)
		return
	}

	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), app)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.SenderName) == "" {
		fields["senderName"] = "Name is required."
	}
	if _, err := mail.ParseAddress(req.SenderEmail); err != nil {
		fields["senderEmail"] = "A valid email address is required."
	}
	if strings.TrimSpace(req.Body) == "" {
		fields["body"] = "Message body is required."
	} else if len(req.Body) > config.MaxMessageLen {
		fields["body"] = "Message is too long."
	}
	if len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation",
			"fields": fields,
		}, app)
		return
	}

	ad, err := app.DB().GetAd(id)
	if err != nil || ad.Status != models.AdStatusApproved {
		respondError(w, http.StatusNotFound, "Ad not found.", app)
		return
	}

	msg := &models.Message{
		AdID:        id,
		SenderName:  strings.TrimSpace(req.SenderName),
		SenderEmail: strings.TrimSpace(req.SenderEmail),
		Body:        req.Body,
		IPHash:      utils.HashIP(ip),
	}
	if err := app.DB().CreateMessage(msg); err != nil {
		logger.Error("Failed to store contact message", "ad_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}

	app.DB().RecordEvent(database.EventAdContacted, id, utils.HashIP(ip))
	respondJSON(w, http.StatusCreated, msg, app)
}

// canModerate allows an admin session or the static approval token that
// moderation email links carry as a query parameter.
func canModerate(r *http.Request, app App) bool {
	if user := sessionUser(r, app); user != nil && user.IsAdmin {
		return true
	}
	want := app.ApprovalToken()
	if want == "" {
		return false
	}
	got := r.URL.Query().Get("token")
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func handleModerationDecision(w http.ResponseWriter, r *http.Request, app App, status string) {
	logger := app.Logger().With("handler", "HandleModerationDecision")

	if !canModerate(r, app) {
		respondError(w, http.StatusUnauthorized, "Authentication required.", app)
		return
	}
	id, err := adIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ad id.", app)
		return
	}

	if err := app.DB().SetAdStatus(id, status); err != nil {
		respondError(w, http.StatusNotFound, "Ad not found.", app)
		return
	}
	logger.Info("Moderation decision applied", "ad_id", id, "status", status)
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": status}, app)
}

// HandleApproveAd approves a pending ad. Repeat calls re-apply and return 200.
func HandleApproveAd(w http.ResponseWriter, r *http.Request, app App) {
	handleModerationDecision(w, r, app, models.AdStatusApproved)
}

// HandleRejectAd rejects a pending ad.
func HandleRejectAd(w http.ResponseWriter, r *http.Request, app App) {
	handleModerationDecision(w, r, app, models.AdStatusRejected)
}

// HandleAdminListAds serves the moderation queue. The status parameter
// defaults to pending; "all" lifts the filter.
func HandleAdminListAds(w http.ResponseWriter, r *http.Request, app App) {
	query := parseAdQuery(r)
	query.Status = r.URL.Query().Get("status")
	if query.Status == "" {
		query.Status = models.AdStatusPending
	}

	list, err := app.DB().ListAds(query)
	if err != nil {
		app.Logger().Error("Failed to list ads for moderation", "error", err)
		respondError(w, http.StatusInternalServerError, "Database error.", app)
		return
	}
	respondJSON(w, http.StatusOK, list, app)
}

// HandleAdminDeleteAd hard-deletes an ad and its messages.
func HandleAdminDeleteAd(w http.ResponseWriter, r *http.Request, app App) {
	id, err := adIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ad id.", app)
		return
	}
	if err := app.DB().DeleteAd(id); err != nil {
		respondError(w, http.StatusNotFound, "Ad not found.", app)
		return
	}
	app.Logger().Info("Ad deleted", "ad_id", id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, app)
}
