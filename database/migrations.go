// surodeals/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Count how many reminders each subscription has received
ALTER TABLE subscriptions ADD COLUMN reminder_count INTEGER DEFAULT 0;

CREATE INDEX IF NOT EXISTS idx_ads_location ON ads(location);
		`,
	},
}
