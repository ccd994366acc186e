// surodeals/database/settings.go
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"
)

// Setting keys understood by the admin dashboard.
const (
	SettingRequireAdApproval = "require_ad_approval"
	SettingBlockedAdLogging  = "blocked_ad_logging"
)

var defaultSettings = map[string]string{
	SettingRequireAdApproval: "true",
	SettingBlockedAdLogging:  "true",
}

// Default banned words. Dutch-language scam and contraband vocabulary the
// moderation team started from; admins extend the list at runtime.
var defaultBlacklistWords = []string{
	"gokken", "casino", "loterij", "piramidespel",
	"escort", "prostitutie", "sexwerk",
	"drugs", "cocaine", "wiet", "xtc",
	"wapen", "vuurwapen", "pistool", "munitie",
	"gratis geld", "snel geld verdienen", "bitcoin investering",
	"viagra", "namaak", "replica",
}

func seedSettings(db *sql.DB) error {
	for key, value := range defaultSettings {
		if _, err := db.Exec("INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}
	return nil
}

func seedBlacklist(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM blacklist_words").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, word := range defaultBlacklistWords {
		if _, err := db.Exec("INSERT OR IGNORE INTO blacklist_words (word, created_at) VALUES (?, ?)", word, utils.GetSQLTime()); err != nil {
			return err
		}
	}
	return nil
}

// GetSetting returns a setting value, falling back to the compiled default.
func (ds *DatabaseService) GetSetting(key string) (string, error) {
	var value string
	err := ds.DB.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		if def, ok := defaultSettings[key]; ok {
			return def, nil
		}
		return "", fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetBoolSetting reads a setting as a boolean flag.
func (ds *DatabaseService) GetBoolSetting(key string) bool {
	value, err := ds.GetSetting(key)
	if err != nil {
		ds.logger.Error("Failed to read setting, using default", "key", key, "error", err)
		return defaultSettings[key] == "true"
	}
	return value == "true"
}

// SetSetting upserts a setting value.
func (ds *DatabaseService) SetSetting(key, value string) error {
	if _, ok := defaultSettings[key]; !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	_, err := ds.DB.Exec("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	return err
}

// AllSettings returns the full settings map for the admin dashboard.
func (ds *DatabaseService) AllSettings() (map[string]string, error) {
	settings := make(map[string]string, len(defaultSettings))
	for key, value := range defaultSettings {
		settings[key] = value
	}
	rows, err := ds.DB.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in AllSettings", "error", err)
		}
	}()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}
	return settings, rows.Err()
}

// --- Blacklist words (durable backing for the moderation cache) ---

// LoadBlacklistWords returns every banned word.
func (ds *DatabaseService) LoadBlacklistWords() ([]string, error) {
	rows, err := ds.DB.Query("SELECT word FROM blacklist_words ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in LoadBlacklistWords", "error", err)
		}
	}()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err == nil {
			words = append(words, w)
		}
	}
	return words, rows.Err()
}

// AddBlacklistWord inserts a banned word. Adding an existing word is a no-op.
func (ds *DatabaseService) AddBlacklistWord(word string) error {
	_, err := ds.DB.Exec("INSERT OR IGNORE INTO blacklist_words (word, created_at) VALUES (?, ?)", word, utils.GetSQLTime())
	return err
}

// RemoveBlacklistWord deletes a banned word.
func (ds *DatabaseService) RemoveBlacklistWord(word string) error {
	_, err := ds.DB.Exec("DELETE FROM blacklist_words WHERE word = ?", word)
	return err
}

// --- Curated filter definitions ---

// GetFilterDefinitions returns the active admin-curated facets for a category.
func (ds *DatabaseService) GetFilterDefinitions(categorySlug string) ([]models.FilterDefinition, error) {
	rows, err := ds.DB.Query(`
		SELECT id, category_slug, field_key, label, type, options, sort_order, active
		FROM filter_definitions WHERE category_slug = ? AND active = 1
		ORDER BY sort_order, id`, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load filter definitions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetFilterDefinitions", "error", err)
		}
	}()

	var defs []models.FilterDefinition
	for rows.Next() {
		var d models.FilterDefinition
		var optionsJSON string
		if err := rows.Scan(&d.ID, &d.CategorySlug, &d.FieldKey, &d.Label, &d.Type, &optionsJSON, &d.SortOrder, &d.Active); err != nil {
			ds.logger.Error("Failed to scan filter definition row", "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(optionsJSON), &d.Options); err != nil {
			d.Options = nil
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// CreateFilterDefinition stores an admin-authored facet.
func (ds *DatabaseService) CreateFilterDefinition(d *models.FilterDefinition) error {
	optionsJSON, err := json.Marshal(d.Options)
	if err != nil {
		return fmt.Errorf("failed to encode filter options: %w", err)
	}
	if d.Options == nil {
		optionsJSON = []byte("[]")
	}
	res, err := ds.DB.Exec(`
		INSERT INTO filter_definitions (category_slug, field_key, label, type, options, sort_order, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.CategorySlug, d.FieldKey, d.Label, d.Type, string(optionsJSON), d.SortOrder, d.Active)
	if err != nil {
		return fmt.Errorf("failed to insert filter definition: %w", err)
	}
	d.ID, err = res.LastInsertId()
	return err
}
