package database

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	family TEXT DEFAULT '',
	sort_order INTEGER DEFAULT 0
);
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin BOOLEAN DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS ads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	price INTEGER NOT NULL, -- minor currency units
	currency TEXT NOT NULL CHECK (currency IN ('EUR', 'SRD')),
	category_id INTEGER NOT NULL,
	location TEXT DEFAULT '',
	contact_name TEXT DEFAULT '',
	contact_phone TEXT DEFAULT '',
	contact_email TEXT DEFAULT '',
	image_urls TEXT DEFAULT '[]', -- JSON array
	status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'expired')),
	views INTEGER DEFAULT 0,
	user_id INTEGER,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	FOREIGN KEY (category_id) REFERENCES categories(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ad_id INTEGER NOT NULL,
	sender_name TEXT NOT NULL,
	sender_email TEXT NOT NULL,
	body TEXT NOT NULL,
	ip_hash TEXT DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (ad_id) REFERENCES ads(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS filter_definitions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category_slug TEXT NOT NULL,
	field_key TEXT NOT NULL,
	label TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'select',
	options TEXT DEFAULT '[]', -- JSON array
	sort_order INTEGER DEFAULT 0,
	active BOOLEAN DEFAULT 1
);
CREATE TABLE IF NOT EXISTS blacklist_words (
	word TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	plan TEXT NOT NULL,
	active BOOLEAN DEFAULT 1,
	expires_at DATETIME NOT NULL,
	reminded_at DATETIME,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS analytics_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event TEXT NOT NULL,
	ad_id INTEGER,
	ip_hash TEXT DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
);

-- --- INDEXES ---
CREATE INDEX IF NOT EXISTS idx_ads_status ON ads(status);
CREATE INDEX IF NOT EXISTS idx_ads_category_status ON ads(category_id, status);
CREATE INDEX IF NOT EXISTS idx_ads_created ON ads(created_at);
CREATE INDEX IF NOT EXISTS idx_messages_ad ON messages(ad_id);
CREATE INDEX IF NOT EXISTS idx_filter_defs_slug ON filter_definitions(category_slug, active);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);
CREATE INDEX IF NOT EXISTS idx_subscriptions_expiry ON subscriptions(active, expires_at);
CREATE INDEX IF NOT EXISTS idx_analytics_created ON analytics_events(created_at);
`
