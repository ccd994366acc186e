// surodeals/moderation/blocklog.go
package moderation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/models"
	"github.com/Hokky66/Surodeals/utils"

	"github.com/google/uuid"
)

// BlockedAdLogger keeps the audit trail of rejected submissions in a flat
// JSON file capped at the most recent entries. All file I/O failures are
// logged and swallowed; a broken audit log must never block ad submission.
type BlockedAdLogger struct {
	Path    string
	Enabled func() bool
	logger  *slog.Logger
	mu      sync.Mutex
}

func NewBlockedAdLogger(path string, enabled func() bool, logger *slog.Logger) *BlockedAdLogger {
	return &BlockedAdLogger{Path: path, Enabled: enabled, logger: logger}
}

// readAll loads the log file. A missing or corrupt file is an empty log.
func (bl *BlockedAdLogger) readAll() []models.BlockedAdEntry {
	data, err := os.ReadFile(bl.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			bl.logger.Error("Could not read blocked-ad log, treating as empty", "path", bl.Path, "error", err)
		}
		return []models.BlockedAdEntry{}
	}
	var entries []models.BlockedAdEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		bl.logger.Error("Corrupt blocked-ad log, treating as empty", "path", bl.Path, "error", err)
		return []models.BlockedAdEntry{}
	}
	return entries
}

func (bl *BlockedAdLogger) writeAll(entries []models.BlockedAdEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode blocked-ad log: %w", err)
	}
	return os.WriteFile(bl.Path, data, 0644)
}

// LogBlockedAd appends one audit record. Fire-and-forget: errors never reach
// the submit path. No-op when the feature flag is off.
func (bl *BlockedAdLogger) LogBlockedAd(ip, title, description string, blockedWords []string, userAgent string) {
	if bl.Enabled != nil && !bl.Enabled() {
		return
	}

	now := utils.GetTime()
	entry := models.BlockedAdEntry{
		ID:           fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()[:8]),
		Timestamp:    now,
		IP:           ip,
		Title:        utils.Truncate(title, config.BlockedLogTitleLen),
		Description:  utils.Truncate(description, config.BlockedLogDescLen),
		BlockedWords: blockedWords,
		UserAgent:    utils.Truncate(userAgent, config.BlockedLogUserAgentLen),
	}

	bl.mu.Lock()
	defer bl.mu.Unlock()

	entries := append([]models.BlockedAdEntry{entry}, bl.readAll()...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > config.BlockedLogMaxEntries {
		entries = entries[:config.BlockedLogMaxEntries]
	}

	if err := bl.writeAll(entries); err != nil {
		bl.logger.Error("Failed to persist blocked-ad log", "path", bl.Path, "error", err)
	}
}

// GetBlockedAdLogs returns the most recent entries, newest first.
func (bl *BlockedAdLogger) GetBlockedAdLogs(limit int) []models.BlockedAdEntry {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	entries := bl.readAll()
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit]
}

// GetBlockedAdsCount24h counts entries newer than 24 hours ago.
func (bl *BlockedAdLogger) GetBlockedAdsCount24h() int {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	cutoff := utils.GetTime().Add(-24 * time.Hour)
	count := 0
	for _, entry := range bl.readAll() {
		if entry.Timestamp.After(cutoff) {
			count++
		}
	}
	return count
}

// ClearBlockedAdLogs resets the audit log to empty.
func (bl *BlockedAdLogger) ClearBlockedAdLogs() error {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return bl.writeAll([]models.BlockedAdEntry{})
}
