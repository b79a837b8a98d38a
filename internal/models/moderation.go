package models

import "time"

// ModeratorAssignment binds a user to the province they moderate.
type ModeratorAssignment struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ProvinceID string    `db:"province_id" json:"province_id"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ModeratorStatus tells the client whether moderation features apply to the caller.
type ModeratorStatus struct {
	IsModerator bool             `json:"is_moderator"`
	Province    *ProvinceSummary `json:"province"`
}

// StatusCount is a grouped count row.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

// ModerationDashboard aggregates province-level content counts.
type ModerationDashboard struct {
	Province      ProvinceSummary   `json:"province"`
	Users         DashboardUsers    `json:"users"`
	Listings      DashboardListings `json:"listings"`
	Announcements DashboardNotices  `json:"announcements"`
}

// DashboardUsers counts distinct posters in a province.
type DashboardUsers struct {
	Total             int `json:"total" db:"total"`
	WithListings      int `json:"with_listings" db:"with_listings"`
	WithAnnouncements int `json:"with_announcements" db:"with_announcements"`
}

// DashboardListings counts listings by status.
type DashboardListings struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Hidden int `json:"hidden"`
	Sold   int `json:"sold"`
}

// DashboardNotices counts announcements by active flag.
type DashboardNotices struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Hidden int `json:"hidden"`
}

// ProvinceMember is a user who has posted content within a province.
type ProvinceMember struct {
	ID                 string    `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	CreatedAt          time.Time `db:"created_at" json:"date_joined"`
	ListingsCount      int       `db:"listings_count" json:"listings_count"`
	AnnouncementsCount int       `db:"announcements_count" json:"announcements_count"`
}

// SweepResult summarises a periodic expiry sweep.
type SweepResult struct {
	ListingsExpired        int64     `json:"listings_expired"`
	AnnouncementsUnpublish int64     `json:"announcements_unpublished"`
	RanAt                  time.Time `json:"ran_at"`
}
