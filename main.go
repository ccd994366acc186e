// surodeals/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/cron"
	"github.com/Hokky66/Surodeals/database"
	"github.com/Hokky66/Surodeals/filters"
	"github.com/Hokky66/Surodeals/handlers"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/moderation"
	"github.com/Hokky66/Surodeals/utils"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

type Application struct {
	db            *database.DatabaseService
	rateLimiter   *models.RateLimiter
	windowLimiter *models.WindowLimiter
	blacklist     *moderation.Blacklist
	blockedLog    *moderation.BlockedAdLogger
	filters       *filters.Generator
	scheduler     *cron.Scheduler
	logger        *slog.Logger
	cronToken     string
	approvalToken string
}

// Methods to satisfy the handlers.App interface
func (a *Application) DB() *database.DatabaseService           { return a.db }
func (a *Application) RateLimiter() *models.RateLimiter        { return a.rateLimiter }
func (a *Application) WindowLimiter() *models.WindowLimiter    { return a.windowLimiter }
func (a *Application) Blacklist() *moderation.Blacklist        { return a.blacklist }
func (a *Application) BlockedLog() *moderation.BlockedAdLogger { return a.blockedLog }
func (a *Application) Filters() *filters.Generator             { return a.filters }
func (a *Application) Scheduler() *cron.Scheduler              { return a.scheduler }
func (a *Application) Logger() *slog.Logger                    { return a.logger }
func (a *Application) CronToken() string                       { return a.cronToken }
func (a *Application) ApprovalToken() string                   { return a.approvalToken }

func newLogger() *slog.Logger {
	if utils.GetEnv("SURODEALS_ENV", "production") == "development" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)

	utils.IPSalt = os.Getenv("SURODEALS_IP_SALT")
	if utils.IPSalt == "" {
		saltBytes := make([]byte, 32)
		if _, err := rand.Read(saltBytes); err != nil {
			logger.Error("Failed to generate IP salt", "error", err)
			os.Exit(1)
		}
		utils.IPSalt = hex.EncodeToString(saltBytes)
	}

	// --- External Configuration ---
	port := utils.GetEnv("SURODEALS_PORT", "8080")
	dbPath := utils.GetEnv("SURODEALS_DB_PATH", "./surodeals.db?_journal_mode=WAL&_foreign_keys=on")
	blockedLogPath := utils.GetEnv("SURODEALS_BLOCKED_LOG", "./blocked_ads.json")
	cronToken := os.Getenv("SURODEALS_CRON_TOKEN")
	approvalToken := os.Getenv("SURODEALS_APPROVAL_TOKEN")
	if cronToken == "" {
		logger.Warn("SURODEALS_CRON_TOKEN not set, cron endpoints disabled")
	}
	if approvalToken == "" {
		logger.Warn("SURODEALS_APPROVAL_TOKEN not set, moderation email links disabled")
	}

	database.BackupDir = utils.GetEnv("SURODEALS_BACKUP_DIR", "./backups")
	if err := os.MkdirAll(database.BackupDir, 0755); err != nil {
		logger.Error("FATAL: Could not create backup directory", "path", database.BackupDir, "error", err)
		os.Exit(1)
	}

	rateLimitEvery, err := time.ParseDuration(utils.GetEnv("SURODEALS_RATE_EVERY", config.DefaultRateLimitEvery))
	if err != nil {
		logger.Warn("Invalid SURODEALS_RATE_EVERY duration, using default", "default", config.DefaultRateLimitEvery)
		rateLimitEvery, _ = time.ParseDuration(config.DefaultRateLimitEvery)
	}
	rateLimitBurst, err := strconv.Atoi(utils.GetEnv("SURODEALS_RATE_BURST", strconv.Itoa(config.DefaultRateLimitBurst)))
	if err != nil {
		logger.Warn("Invalid SURODEALS_RATE_BURST integer, using default", "default", config.DefaultRateLimitBurst)
		rateLimitBurst = config.DefaultRateLimitBurst
	}
	rateLimitPrune, err := time.ParseDuration(utils.GetEnv("SURODEALS_RATE_PRUNE", config.DefaultRateLimitPrune))
	if err != nil {
		rateLimitPrune, _ = time.ParseDuration(config.DefaultRateLimitPrune)
	}
	rateLimitExpire, err := time.ParseDuration(utils.GetEnv("SURODEALS_RATE_EXPIRE", config.DefaultRateLimitExpire))
	if err != nil {
		rateLimitExpire, _ = time.ParseDuration(config.DefaultRateLimitExpire)
	}

	dbService, err := database.InitDB(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbService.DB.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	windowLimiter := models.NewWindowLimiter()
	windowLimiter.Register(models.ScopeAdCreate, config.AdCreateLimit, config.AdCreateWindow)
	windowLimiter.Register(models.ScopeContact, config.ContactLimit, config.ContactWindow)
	windowLimiter.Register(models.ScopeLogin, config.LoginLimit, config.LoginWindow)
	windowLimiter.Register(models.ScopeRegister, config.RegisterLimit, config.RegisterWindow)

	blockedLog := moderation.NewBlockedAdLogger(
		blockedLogPath,
		func() bool { return dbService.GetBoolSetting(database.SettingBlockedAdLogging) },
		logger,
	)

	// --- Backup Archive Init ---
	var archive utils.ArchiveService
	if utils.GetEnv("SURODEALS_S3_ENABLED", "false") == "true" {
		endpoint := utils.GetEnv("SURODEALS_S3_ENDPOINT", "")
		accessKey := utils.GetEnv("SURODEALS_S3_ACCESS_KEY", "")
		secretKey := utils.GetEnv("SURODEALS_S3_SECRET_KEY", "")
		bucket := utils.GetEnv("SURODEALS_S3_BUCKET", "")
		region := utils.GetEnv("SURODEALS_S3_REGION", "us-east-1")
		publicURL := utils.GetEnv("SURODEALS_S3_PUBLIC_URL", "")
		useSSL := utils.GetEnv("SURODEALS_S3_USE_SSL", "true") == "true"

		archive, err = utils.NewS3Archive(endpoint, accessKey, secretKey, bucket, region, publicURL, useSSL)
		if err != nil {
			logger.Error("Failed to initialize S3 archive", "error", err)
			os.Exit(1)
		}
		logger.Info("S3 backup archive initialized", "endpoint", endpoint, "bucket", bucket)
	} else {
		archiveDir := utils.GetEnv("SURODEALS_ARCHIVE_DIR", "./archive")
		if err := os.MkdirAll(archiveDir, 0755); err != nil {
			logger.Error("FATAL: Could not create archive directory", "path", archiveDir, "error", err)
			os.Exit(1)
		}
		archive = &utils.LocalArchive{Dir: archiveDir}
		logger.Info("Local backup archive initialized", "dir", archiveDir)
	}

	scheduler := cron.NewScheduler(logger)
	if err := cron.RegisterJobs(scheduler, cron.Deps{
		DB:         dbService,
		BlockedLog: blockedLog,
		Archive:    archive,
		Mailer:     &cron.LogMailer{Logger: logger},
		Logger:     logger,
		Limiter:    windowLimiter,
	}); err != nil {
		logger.Error("Failed to register cron jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := &Application{
		db:            dbService,
		rateLimiter:   models.NewRateLimiter(rateLimitEvery, rateLimitBurst, rateLimitPrune, rateLimitExpire),
		windowLimiter: windowLimiter,
		blacklist:     moderation.NewBlacklist(dbService),
		blockedLog:    blockedLog,
		filters:       filters.NewGenerator(dbService),
		scheduler:     scheduler,
		logger:        logger,
		cronToken:     cronToken,
		approvalToken: approvalToken,
	}

	mux := handlers.SetupRouter(app)

	// --- Graceful Shutdown ---
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("surodeals server started successfully",
		"version", config.AppVersion,
		"address", "http://localhost:"+port,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exiting")
}
