// surodeals/config/config.go
package config

import "time"

const (
	AppVersion = "1.2.0"

	// Ad Form Limits
	MaxTitleLen       = 120
	MaxDescriptionLen = 5000
	MaxLocationLen    = 100
	MaxContactLen     = 100
	MaxImageURLs      = 8
	MaxMessageLen     = 2000

	// Ad Lifecycle
	AdLifetimeDays = 60

	// Bunkopu Seri price ceiling: EUR 10.00 or the SRD equivalent at the
	// fixed approximate rate of 40 SRD per EUR. Minor currency units.
	BunkopuSeriSlug   = "bunkopu-seri"
	BunkopuSeriCapEUR = 1000
	BunkopuSeriCapSRD = 40000

	// Moderation Audit Log
	BlockedLogMaxEntries   = 1000
	BlockedLogTitleLen     = 200
	BlockedLogDescLen      = 500
	BlockedLogUserAgentLen = 200

	// Backups
	BackupRetention = 7

	// Global Rate Limiting Defaults (token bucket across the whole API)
	DefaultRateLimitEvery  = "500ms"
	DefaultRateLimitBurst  = 20
	DefaultRateLimitPrune  = "1h"
	DefaultRateLimitExpire = "24h"
)

// Fixed-window rate limits per endpoint scope. The ad-creation limit is the
// canonical 10 per 60 minutes.
const (
	AdCreateLimit  = 10
	AdCreateWindow = 60 * time.Minute

	ContactLimit  = 3
	ContactWindow = 10 * time.Minute

	LoginLimit  = 5
	LoginWindow = 15 * time.Minute

	RegisterLimit  = 3
	RegisterWindow = 60 * time.Minute
)

// Cron schedules (standard five-field cron expressions).
const (
	ScheduleBackup           = "0 3 * * *"
	ScheduleExpireAds        = "0 4 * * *"
	ScheduleSubscriptionMail = "0 9 * * *"
	ScheduleAnalyticsCleanup = "0 2 * * 0"
	ScheduleDailyStats       = "55 23 * * *"
)

const (
	SubscriptionReminderDays = 7
	AnalyticsRetentionDays   = 90
	SessionLifetime          = 30 * 24 * time.Hour
)
