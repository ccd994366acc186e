// surodeals/models/models.go
package models

import (
	"database/sql"
	"time"
)

// --- Core Data Models ---

// Ad statuses. Transitions: pending->approved, pending->rejected,
// approved->expired (time-driven). Deletion is a hard delete.
const (
	AdStatusPending  = "pending"
	AdStatusApproved = "approved"
	AdStatusRejected = "rejected"
	AdStatusExpired  = "expired"
)

const (
	CurrencyEUR = "EUR"
	CurrencySRD = "SRD"
)

type Ad struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"` // minor currency units
	Currency     string        `json:"currency"`
	CategoryID   int64         `json:"categoryId"`
	CategorySlug string        `json:"categorySlug,omitempty"`
	Location     string        `json:"location"`
	ContactName  string        `json:"contactName"`
	ContactPhone string        `json:"contactPhone,omitempty"`
	ContactEmail string        `json:"contactEmail,omitempty"`
	ImageURLs    []string      `json:"imageUrls"`
	Status       string        `json:"status"`
	Views        int64         `json:"views"`
	UserID       sql.NullInt64 `json:"-"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Family    string `json:"family,omitempty"`
	SortOrder int    `json:"sortOrder"`
}

// AdQuery carries the parsed listing parameters for GET /api/ads.
type AdQuery struct {
	Search       string
	CategoryIDs  []int64
	CategorySlug string
	Location     string
	MinPrice     int64
	MaxPrice     int64
	Currency     string
	Status       string   // empty means approved-only (public listing)
	Keywords     []string // dynamic-filter keyword values matched against text
	Limit        int
	Offset       int
}

type AdList struct {
	Total  int  `json:"total"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
	Items  []Ad `json:"items"`
}

// FilterDefinition describes one facet in a category's search sidebar.
// Curated rows are admin-authored and persisted; dynamic ones are synthesized
// per request and never stored.
type FilterDefinition struct {
	ID           int64    `json:"id,omitempty"`
	CategorySlug string   `json:"categorySlug"`
	FieldKey     string   `json:"fieldKey"`
	Label        string   `json:"label"`
	Type         string   `json:"type"` // "select", "range"
	Options      []string `json:"options,omitempty"`
	SortOrder    int      `json:"sortOrder"`
	Active       bool     `json:"active"`
	Dynamic      bool     `json:"dynamic"`
	Min          int64    `json:"min,omitempty"`
	Max          int64    `json:"max,omitempty"`
}

// BlockedAdEntry is one immutable audit record in the blocked-ad flat file.
type BlockedAdEntry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	IP           string    `json:"ip"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	BlockedWords []string  `json:"blockedWords"`
	UserAgent    string    `json:"userAgent,omitempty"`
}

type Message struct {
	ID          int64     `json:"id"`
	AdID        int64     `json:"adId"`
	SenderName  string    `json:"senderName"`
	SenderEmail string    `json:"senderEmail"`
	Body        string    `json:"body"`
	IPHash      string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// --- Accounts & Subscriptions ---

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Subscription struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"userId"`
	Plan       string       `json:"plan"`
	Active     bool         `json:"active"`
	ExpiresAt  time.Time    `json:"expiresAt"`
	RemindedAt sql.NullTime `json:"-"`
}

// --- System Models ---

type DailyStats struct {
	AdsCreated  int `json:"adsCreated"`
	AdsPending  int `json:"adsPending"`
	AdsApproved int `json:"adsApproved"`
	ViewsToday  int `json:"viewsToday"`
	Blocked24h  int `json:"blocked24h"`
}

// JobStatus tracks one scheduled job for the /api/cron/status endpoint.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Running   bool       `json:"running"`
	Runs      int64      `json:"runs"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}
