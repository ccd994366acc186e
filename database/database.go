// surodeals/database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Hokky66/Surodeals/utils"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB            *sql.DB
	logger        *slog.Logger
	dsn           string
	categoryCache map[string]int64 // slug -> id
	cacheMu       sync.RWMutex
}

// Default categories seeded on first run. Family selects the keyword tables
// used by the dynamic filter generator.
var defaultCategories = []struct {
	Name   string
	Slug   string
	Family string
}{
	{"Auto's", "autos", "vehicles"},
	{"Telefoons", "telefoons", "electronics"},
	{"Elektronica", "electronica", "electronics"},
	{"Kleding", "kleding", "clothing"},
	{"Huis & Tuin", "huis-en-tuin", ""},
	{"Diensten", "diensten", ""},
	{"Bunkopu Seri", "bunkopu-seri", ""},
}

// InitDB connects to the database, runs migrations, and seeds default data.
func InitDB(dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Seed database if empty
	var categoryCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categoryCount); err == nil && categoryCount == 0 {
		for i, c := range defaultCategories {
			if _, err := db.Exec("INSERT INTO categories (name, slug, family, sort_order) VALUES (?, ?, ?, ?)", c.Name, c.Slug, c.Family, i); err != nil {
				return nil, fmt.Errorf("failed to seed categories: %w", err)
			}
		}
	}

	if err := seedSettings(db); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}
	if err := seedBlacklist(db); err != nil {
		return nil, fmt.Errorf("failed to seed blacklist: %w", err)
	}

	logger.Info("Database initialized and cache ready.")

	return &DatabaseService{
		DB:            db,
		logger:        logger,
		dsn:           dataSourceName,
		categoryCache: make(map[string]int64),
	}, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// GetCategoryID resolves a category slug, using the instance's cache.
func (ds *DatabaseService) GetCategoryID(slug string) (int64, error) {
	ds.cacheMu.RLock()
	id, ok := ds.categoryCache[slug]
	ds.cacheMu.RUnlock()
	if ok {
		return id, nil
	}

	err := ds.DB.QueryRow("SELECT id FROM categories WHERE slug = ?", slug).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("category '%s' not found", slug)
		}
		return 0, fmt.Errorf("db error getting category '%s': %w", slug, err)
	}

	ds.cacheMu.Lock()
	ds.categoryCache[slug] = id
	ds.cacheMu.Unlock()
	return id, nil
}

// ClearCategoryCache invalidates the slug resolution cache.
func (ds *DatabaseService) ClearCategoryCache() {
	ds.cacheMu.Lock()
	ds.categoryCache = make(map[string]int64)
	ds.cacheMu.Unlock()
}
