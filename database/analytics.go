// surodeals/database/analytics.go
package database

import (
	"fmt"
	"time"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

// Analytics event names. RecordEvent accepts any string, but everything the
// handlers emit and the stats queries count goes through these.
const (
	EventAdCreated   = "ad_created"
	EventAdViewed    = "ad_viewed"
	EventAdContacted = "ad_contacted"
)

// RecordEvent appends an analytics event. Failures are logged, not returned;
// analytics must never break a page view.
func (ds *DatabaseService) RecordEvent(event string, adID int64, ipHash string) {
	_, err := ds.DB.Exec(
		"INSERT INTO analytics_events (event, ad_id, ip_hash, created_at) VALUES (?, ?, ?, ?)",
		event, adID, ipHash, utils.GetSQLTime())
	if err != nil {
		ds.logger.Error("Failed to record analytics event", "event", event, "error", err)
	}
}

// CleanupAnalytics deletes events older than the cutoff. Returns rows removed.
func (ds *DatabaseService) CleanupAnalytics(olderThan time.Time) (int64, error) {
	res, err := ds.DB.Exec("DELETE FROM analytics_events WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("analytics cleanup failed: %w", err)
	}
	return res.RowsAffected()
}

// GetDailyStats collects the numbers the daily stats job logs.
func (ds *DatabaseService) GetDailyStats(now time.Time) (*models.DailyStats, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := &models.DailyStats{}
	queries := []struct {
		dest  *int
		query string
		args  []interface{}
	}{
		{&stats.AdsCreated, "SELECT COUNT(*) FROM ads WHERE created_at >= ?", []interface{}{dayStart}},
		{&stats.AdsPending, "SELECT COUNT(*) FROM ads WHERE status = ?", []interface{}{models.AdStatusPending}},
		{&stats.AdsApproved, "SELECT COUNT(*) FROM ads WHERE status = ?", []interface{}{models.AdStatusApproved}},
		{&stats.ViewsToday, "SELECT COUNT(*) FROM analytics_events WHERE event = ? AND created_at >= ?", []interface{}{EventAdViewed, dayStart}},
	}
	for _, q := range queries {
		if err := ds.DB.QueryRow(q.query, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("daily stats query failed: %w", err)
		}
	}
	return stats, nil
}

// --- Subscriptions ---

// DueSubscriptionReminders returns active subscriptions expiring within the
// window that have not been reminded yet.
func (ds *DatabaseService) DueSubscriptionReminders(now time.Time, within time.Duration) ([]models.Subscription, error) {
	rows, err := ds.DB.Query(`
		SELECT id, user_id, plan, active, expires_at, reminded_at
		FROM subscriptions
		WHERE active = 1 AND expires_at > ? AND expires_at <= ? AND reminded_at IS NULL`,
		now.UTC(), now.UTC().Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in DueSubscriptionReminders", "error", err)
		}
	}()

	var subs []models.Subscription
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Plan, &s.Active, &s.ExpiresAt, &s.RemindedAt); err != nil {
			ds.logger.Error("Failed to scan subscription row", "error", err)
			continue
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// MarkSubscriptionReminded records that a reminder went out.
func (ds *DatabaseService) MarkSubscriptionReminded(id int64, now time.Time) error {
	_, err := ds.DB.Exec(
		"UPDATE subscriptions SET reminded_at = ?, reminder_count = reminder_count + 1 WHERE id = ?",
		now.UTC(), id)
	return err
}
