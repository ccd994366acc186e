// surodeals/cron/jobs.go
package cron

import (
	"log/slog"
	"time"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/database"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/moderation"
	"github.com/Hokky66/Surodeals/utils"
)

// Job names, also the path segments of the manual trigger endpoints.
const (
	JobBackup                = "backup"
	JobCheckExpired          = "check-expired"
	JobSubscriptionReminders = "subscription-reminders"
	JobCleanupAnalytics      = "cleanup-analytics"
	JobDailyStats            = "daily-stats"
)

// Mailer delivers subscription reminders. Actual SMTP delivery lives outside
// this repo; the default implementation logs what would have been sent.
type Mailer interface {
	SendReminder(sub models.Subscription) error
}

// LogMailer writes reminder mails to the log instead of sending them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendReminder(sub models.Subscription) error {
	m.Logger.Info("Subscription reminder",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"plan", sub.Plan,
		"expires_at", sub.ExpiresAt,
	)
	return nil
}

// Deps are the collaborators the maintenance jobs need.
type Deps struct {
	DB         *database.DatabaseService
	BlockedLog *moderation.BlockedAdLogger
	Archive    utils.ArchiveService // nil when no remote archive is configured
	Mailer     Mailer
	Logger     *slog.Logger
	Limiter    interface{ Prune() }
}

// RegisterJobs wires the five maintenance jobs onto the scheduler.
func RegisterJobs(s *Scheduler, deps Deps) error {
	jobs := []struct {
		name     string
		schedule string
		run      func() error
	}{
		{JobBackup, config.ScheduleBackup, func() error { return runBackup(deps) }},
		{JobCheckExpired, config.ScheduleExpireAds, func() error { return runCheckExpired(deps) }},
		{JobSubscriptionReminders, config.ScheduleSubscriptionMail, func() error { return runSubscriptionReminders(deps) }},
		{JobCleanupAnalytics, config.ScheduleAnalyticsCleanup, func() error { return runCleanupAnalytics(deps) }},
		{JobDailyStats, config.ScheduleDailyStats, func() error { return runDailyStats(deps) }},
	}
	for _, job := range jobs {
		if err := s.AddJob(job.name, job.schedule, job.run); err != nil {
			return err
		}
	}
	return nil
}

func runBackup(deps Deps) error {
	path, pruned, err := deps.DB.BackupDatabase()
	if err != nil {
		return err
	}
	deps.Logger.Info("Database backup complete", "path", path, "pruned", len(pruned))

	if deps.Archive != nil {
		if err := deps.DB.ArchiveBackup(deps.Archive, path); err != nil {
			// The local backup succeeded; a failed upload is worth a log
			// line but not a failed job.
			deps.Logger.Error("Backup archive upload failed", "path", path, "error", err)
		}
		// Mirror the retention sweep so the archive does not grow unbounded.
		for _, name := range pruned {
			if err := deps.Archive.DeleteFile(name); err != nil {
				deps.Logger.Error("Failed to prune archived backup", "name", name, "error", err)
			}
		}
	}
	return nil
}

func runCheckExpired(deps Deps) error {
	n, err := deps.DB.ExpireOverdueAds(utils.GetSQLTime())
	if err != nil {
		return err
	}
	deps.Logger.Info("Ad expiration sweep complete", "expired", n)
	return nil
}

func runSubscriptionReminders(deps Deps) error {
	now := utils.GetSQLTime()
	due, err := deps.DB.DueSubscriptionReminders(now, time.Duration(config.SubscriptionReminderDays)*24*time.Hour)
	if err != nil {
		return err
	}

	sent := 0
	for _, sub := range due {
		if err := deps.Mailer.SendReminder(sub); err != nil {
			deps.Logger.Error("Failed to send subscription reminder", "subscription_id", sub.ID, "error", err)
			continue
		}
		if err := deps.DB.MarkSubscriptionReminded(sub.ID, now); err != nil {
			deps.Logger.Error("Failed to mark subscription reminded", "subscription_id", sub.ID, "error", err)
			continue
		}
		sent++
	}
	deps.Logger.Info("Subscription reminders complete", "due", len(due), "sent", sent)
	return nil
}

func runCleanupAnalytics(deps Deps) error {
	cutoff := utils.GetSQLTime().AddDate(0, 0, -config.AnalyticsRetentionDays)
	n, err := deps.DB.CleanupAnalytics(cutoff)
	if err != nil {
		return err
	}
	if deps.Limiter != nil {
		deps.Limiter.Prune()
	}
	deps.Logger.Info("Analytics cleanup complete", "removed", n)
	return nil
}

func runDailyStats(deps Deps) error {
	stats, err := deps.DB.GetDailyStats(utils.GetSQLTime())
	if err != nil {
		return err
	}
	blocked := 0
	if deps.BlockedLog != nil {
		blocked = deps.BlockedLog.GetBlockedAdsCount24h()
	}
	deps.Logger.Info("Daily stats",
		"ads_created", stats.AdsCreated,
		"ads_pending", stats.AdsPending,
		"ads_approved", stats.AdsApproved,
		"views_today", stats.ViewsToday,
		"blocked_24h", blocked,
	)
	return nil
}

// ValidJobName reports whether name is one of the registered maintenance jobs.
func ValidJobName(name string) bool {
	switch name {
	case JobBackup, JobCheckExpired, JobSubscriptionReminders, JobCleanupAnalytics, JobDailyStats:
		return true
	}
	return false
}
