// surodeals/database/ads.go
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

const adColumns = `a.id, a.title, a.description, a.price, a.currency, a.category_id, c.slug,
	a.location, a.contact_name, a.contact_phone, a.contact_email, a.image_urls,
	a.status, a.views, a.user_id, a.created_at, a.updated_at, a.expires_at`

func scanAd(scanner interface{ Scan(...interface{}) error }) (models.Ad, error) {
	var ad models.Ad
	var imageJSON string
	err := scanner.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.Price, &ad.Currency,
		&ad.CategoryID, &ad.CategorySlug, &ad.Location, &ad.ContactName, &ad.ContactPhone,
		&ad.ContactEmail, &imageJSON, &ad.Status, &ad.Views, &ad.UserID,
		&ad.CreatedAt, &ad.UpdatedAt, &ad.ExpiresAt)
	if err != nil {
		return ad, err
	}
	if err := json.Unmarshal([]byte(imageJSON), &ad.ImageURLs); err != nil {
		ad.ImageURLs = nil
	}
	return ad, nil
}

// CreateAd inserts a new ad. The initial status is the caller's decision
// (pending or approved, depending on the approval setting).
func (ds *DatabaseService) CreateAd(ad *models.Ad) error {
	now := utils.GetSQLTime()
	ad.CreatedAt = now
	ad.UpdatedAt = now
	ad.ExpiresAt = now.AddDate(0, 0, config.AdLifetimeDays)

	imageJSON, err := json.Marshal(ad.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image urls: %w", err)
	}
	if ad.ImageURLs == nil {
		imageJSON = []byte("[]")
	}

	res, err := ds.DB.Exec(`INSERT INTO ads
		(title, description, price, currency, category_id, location, contact_name, contact_phone, contact_email, image_urls, status, views, user_id, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		ad.Title, ad.Description, ad.Price, ad.Currency, ad.CategoryID, ad.Location,
		ad.ContactName, ad.ContactPhone, ad.ContactEmail, string(imageJSON), ad.Status,
		ad.UserID, ad.CreatedAt, ad.UpdatedAt, ad.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert ad: %w", err)
	}
	ad.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new ad id: %w", err)
	}
	return nil
}

// GetAd fetches a single ad by ID.
func (ds *DatabaseService) GetAd(id int64) (*models.Ad, error) {
	row := ds.DB.QueryRow(`SELECT `+adColumns+` FROM ads a JOIN categories c ON a.category_id = c.id WHERE a.id = ?`, id)
	ad, err := scanAd(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ad %d not found", id)
		}
		return nil, fmt.Errorf("db error getting ad %d: %w", id, err)
	}
	return &ad, nil
}

// SetAdStatus applies an admin-driven status transition. Re-applying the
// current status is not an error; approve/reject links in moderation emails
// get clicked more than once.
func (ds *DatabaseService) SetAdStatus(id int64, status string) error {
	if status != models.AdStatusApproved && status != models.AdStatusRejected {
		return fmt.Errorf("invalid target status %q", status)
	}
	res, err := ds.DB.Exec("UPDATE ads SET status = ?, updated_at = ? WHERE id = ?", status, utils.GetSQLTime(), id)
	if err != nil {
		return fmt.Errorf("failed to update ad %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ad %d not found", id)
	}
	return nil
}

// IncrementViews bumps the view counter. The increment happens inside the
// UPDATE so concurrent detail-page fetches cannot lose counts.
func (ds *DatabaseService) IncrementViews(id int64) error {
	_, err := ds.DB.Exec("UPDATE ads SET views = views + 1 WHERE id = ?", id)
	return err
}

// DeleteAd hard-deletes an ad and its contact messages. Irreversible.
func (ds *DatabaseService) DeleteAd(id int64) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
			ds.logger.Error("Failed to rollback transaction in DeleteAd", "error", rerr)
		}
	}()

	if _, err := tx.Exec("DELETE FROM messages WHERE ad_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete ad messages: %w", err)
	}
	res, err := tx.Exec("DELETE FROM ads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ad %d not found", id)
	}
	return tx.Commit()
}

// ExpireOverdueAds flips approved ads older than the ad lifetime to expired
// in one batch update. Returns the number of ads expired.
func (ds *DatabaseService) ExpireOverdueAds(now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -config.AdLifetimeDays)
	res, err := ds.DB.Exec(
		"UPDATE ads SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?",
		models.AdStatusExpired, now.UTC(), models.AdStatusApproved, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("expiration sweep failed: %w", err)
	}
	return res.RowsAffected()
}

// ListAds runs the filtered, paginated listing query. An empty q.Status means
// the public approved-only view.
func (ds *DatabaseService) ListAds(q models.AdQuery) (*models.AdList, error) {
	where := []string{}
	args := []interface{}{}

	status := q.Status
	if status == "" {
		status = models.AdStatusApproved
	}
	if status != "all" {
		where = append(where, "a.status = ?")
		args = append(args, status)
	}
	if q.Search != "" {
		where = append(where, "(a.title LIKE ? OR a.description LIKE ?)")
		pattern := "%" + q.Search + "%"
		args = append(args, pattern, pattern)
	}
	if len(q.CategoryIDs) > 0 {
		where = append(where, "a.category_id IN (?"+strings.Repeat(",?", len(q.CategoryIDs)-1)+")")
		for _, id := range q.CategoryIDs {
			args = append(args, id)
		}
	}
	if q.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, q.CategorySlug)
	}
	if q.Location != "" {
		where = append(where, "a.location = ? COLLATE NOCASE")
		args = append(args, q.Location)
	}
	if q.Currency != "" {
		where = append(where, "a.currency = ?")
		args = append(args, q.Currency)
	}
	if q.MinPrice > 0 {
		where = append(where, "a.price >= ?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		where = append(where, "a.price <= ?")
		args = append(args, q.MaxPrice)
	}
	// Dynamic-filter keyword values must match whole words, the same rule the
	// facet miner uses to offer them. SQLite's LIKE has no word boundary, so
	// the LIKE clause only prefilters and the regexps below decide. Without it
	// a clothing size of "m" would match every ad containing the letter.
	keywordRes := make([]*regexp.Regexp, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		where = append(where, "(a.title LIKE ? OR a.description LIKE ?)")
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
		keywordRes = append(keywordRes, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	list := &models.AdList{Limit: limit, Offset: offset, Items: []models.Ad{}}

	query := `SELECT ` + adColumns + ` FROM ads a JOIN categories c ON a.category_id = c.id` +
		clause + " ORDER BY a.created_at DESC, a.id DESC"
	if len(keywordRes) == 0 {
		countQuery := "SELECT COUNT(*) FROM ads a JOIN categories c ON a.category_id = c.id" + clause
		if err := ds.DB.QueryRow(countQuery, args...).Scan(&list.Total); err != nil {
			return nil, fmt.Errorf("listing count failed: %w", err)
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing query failed: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListAds", "error", err)
		}
	}()

	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			ds.logger.Error("Failed to scan ad row", "error", err)
			continue
		}
		list.Items = append(list.Items, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(keywordRes) > 0 {
		matched := list.Items[:0]
		for _, ad := range list.Items {
			text := ad.Title + " " + ad.Description
			ok := true
			for _, re := range keywordRes {
				if !re.MatchString(text) {
					ok = false
					break
				}
			}
			if ok {
				matched = append(matched, ad)
			}
		}
		list.Total = len(matched)
		if offset > len(matched) {
			offset = len(matched)
		}
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		list.Items = matched[offset:end]
	}
	return list, nil
}

// ApprovedAdTexts returns location, price and concatenated text for every
// approved ad in a category. Input for the dynamic filter generator.
func (ds *DatabaseService) ApprovedAdTexts(categorySlug string) (locations []string, prices []int64, texts []string, err error) {
	rows, err := ds.DB.Query(`
		SELECT a.location, a.price, a.title || ' ' || a.description
		FROM ads a JOIN categories c ON a.category_id = c.id
		WHERE c.slug = ? AND a.status = ?`, categorySlug, models.AdStatusApproved)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query ads for facet mining: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ApprovedAdTexts", "error", err)
		}
	}()

	for rows.Next() {
		var loc, text string
		var price int64
		if err := rows.Scan(&loc, &price, &text); err != nil {
			ds.logger.Error("Failed to scan ad text row", "error", err)
			continue
		}
		locations = append(locations, loc)
		prices = append(prices, price)
		texts = append(texts, text)
	}
	return locations, prices, texts, rows.Err()
}

// GetCategoryFamily returns the keyword family for a category slug, or the
// empty string if the category has none.
func (ds *DatabaseService) GetCategoryFamily(slug string) (string, error) {
	var family string
	err := ds.DB.QueryRow("SELECT family FROM categories WHERE slug = ?", slug).Scan(&family)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("category '%s' not found", slug)
		}
		return "", err
	}
	return family, nil
}

// ListCategories returns all categories in sort order.
func (ds *DatabaseService) ListCategories() ([]models.Category, error) {
	rows, err := ds.DB.Query("SELECT id, name, slug, family, sort_order FROM categories ORDER BY sort_order, id")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListCategories", "error", err)
		}
	}()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Family, &c.SortOrder); err != nil {
			ds.logger.Error("Failed to scan category row", "error", err)
			continue
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateMessage stores a contact message for an ad.
func (ds *DatabaseService) CreateMessage(m *models.Message) error {
	m.CreatedAt = utils.GetSQLTime()
	res, err := ds.DB.Exec(
		"INSERT INTO messages (ad_id, sender_name, sender_email, body, ip_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.AdID, m.SenderName, m.SenderEmail, m.Body, m.IPHash, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}
