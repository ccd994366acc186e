// surodeals/database/backup.go
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Hokky66/Surodeals/config"
	"github.com/Hokky66/Surodeals/utils"
)

// BackupDir is where backup artifacts land before optional archive upload.
var BackupDir string

// BackupDatabase performs an online backup of the live SQLite database using
// VACUUM INTO. If the native dump fails, it falls back to a JSON snapshot of
// the core tables so that a nightly run never produces nothing. The second
// return value lists backup filenames removed by the retention sweep, so the
// caller can drop the same files from the archive.
func (ds *DatabaseService) BackupDatabase() (string, []string, error) {
	if BackupDir == "" {
		return "", nil, fmt.Errorf("backup directory is not configured")
	}
	if err := os.MkdirAll(BackupDir, 0755); err != nil {
		return "", nil, fmt.Errorf("could not create backup directory %s: %w", BackupDir, err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02_15-04-05")
	backupFilename := fmt.Sprintf("surodeals_backup_%s.db", timestamp)
	backupPath := filepath.Join(BackupDir, backupFilename)

	ds.logger.Info("Starting database backup", "destination", backupPath)

	_, err := ds.DB.Exec("VACUUM INTO ?", backupPath)
	if err != nil {
		// Remove the potentially incomplete file before falling back.
		if removeErr := os.Remove(backupPath); removeErr != nil && !os.IsNotExist(removeErr) {
			ds.logger.Error("Failed to remove incomplete backup file", "path", backupPath, "error", removeErr)
		}
		ds.logger.Warn("VACUUM INTO failed, falling back to JSON snapshot", "error", err)
		return ds.snapshotJSON(timestamp)
	}

	pruned, err := pruneOldBackups(BackupDir, config.BackupRetention)
	if err != nil {
		ds.logger.Warn("Backup retention sweep failed", "error", err)
	}
	return backupPath, pruned, nil
}

// snapshotJSON dumps the core tables to a single JSON file.
func (ds *DatabaseService) snapshotJSON(timestamp string) (string, []string, error) {
	snapshot := make(map[string][]map[string]interface{})
	for _, table := range []string{"ads", "categories", "users", "settings"} {
		rows, err := ds.DB.Query("SELECT * FROM " + table)
		if err != nil {
			return "", nil, fmt.Errorf("snapshot query for %s failed: %w", table, err)
		}

		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return "", nil, err
		}
		var records []map[string]interface{}
		for rows.Next() {
			values := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				ds.logger.Error("Failed to scan snapshot row", "table", table, "error", err)
				continue
			}
			record := make(map[string]interface{}, len(cols))
			for i, col := range cols {
				if b, ok := values[i].([]byte); ok {
					record[col] = string(b)
				} else {
					record[col] = values[i]
				}
			}
			records = append(records, record)
		}
		rerr := rows.Err()
		rows.Close()
		if rerr != nil {
			return "", nil, rerr
		}
		snapshot[table] = records
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	snapshotPath := filepath.Join(BackupDir, fmt.Sprintf("surodeals_backup_%s.json", timestamp))
	if err := os.WriteFile(snapshotPath, data, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	pruned, err := pruneOldBackups(BackupDir, config.BackupRetention)
	if err != nil {
		ds.logger.Warn("Backup retention sweep failed", "error", err)
	}
	return snapshotPath, pruned, nil
}

// ArchiveBackup uploads a finished backup file to the archive service.
func (ds *DatabaseService) ArchiveBackup(archive utils.ArchiveService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read backup %s: %w", path, err)
	}
	contentType := "application/octet-stream"
	if strings.HasSuffix(path, ".json") {
		contentType = "application/json"
	}
	location, err := archive.SaveFile(filepath.Base(path), data, contentType)
	if err != nil {
		return fmt.Errorf("archive upload failed: %w", err)
	}
	ds.logger.Info("Backup archived", "location", location)
	return nil
}

// pruneOldBackups keeps the newest keep backup files by modification time and
// returns the filenames it removed.
func pruneOldBackups(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	var backups []backupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "surodeals_backup_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{path: filepath.Join(dir, entry.Name()), modTime: info.ModTime()})
	}

	if len(backups) <= keep {
		return nil, nil
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].modTime.After(backups[j].modTime) })
	var removed []string
	for _, old := range backups[keep:] {
		if err := os.Remove(old.path); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, filepath.Base(old.path))
	}
	return removed, nil
}
