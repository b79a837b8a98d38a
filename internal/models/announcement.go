package models

import (
	"strings"
	"time"
)

// AnnouncementPriority gates how far an announcement cascades below its stored scope.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
	PriorityUrgent AnnouncementPriority = "urgent"
)

// Rank orders priorities low < medium < high < urgent. Unknown values rank 0.
func (p AnnouncementPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Valid reports whether the priority is a known tier.
func (p AnnouncementPriority) Valid() bool {
	return p.Rank() > 0
}

// AtLeast reports whether p meets the minimum tier.
func (p AnnouncementPriority) AtLeast(min AnnouncementPriority) bool {
	return p.Valid() && p.Rank() >= min.Rank()
}

// PrioritiesAtLeast lists the known priorities meeting min, lowest first.
func PrioritiesAtLeast(min AnnouncementPriority) []AnnouncementPriority {
	all := []AnnouncementPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	out := make([]AnnouncementPriority, 0, len(all))
	for _, p := range all {
		if p.AtLeast(min) {
			out = append(out, p)
		}
	}
	return out
}

// ParsePriority normalises user input into a priority.
func ParsePriority(raw string) (AnnouncementPriority, bool) {
	p := AnnouncementPriority(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.Valid()
}

// AnnouncementType categorises announcements.
type AnnouncementType string

const (
	AnnouncementTypeGeneral    AnnouncementType = "general"
	AnnouncementTypeGovernment AnnouncementType = "government"
	AnnouncementTypeCommunity  AnnouncementType = "community"
	AnnouncementTypeAlert      AnnouncementType = "alert"
	AnnouncementTypeEvent      AnnouncementType = "event"
)

// Valid reports whether the type is known.
func (t AnnouncementType) Valid() bool {
	switch t {
	case AnnouncementTypeGeneral, AnnouncementTypeGovernment, AnnouncementTypeCommunity, AnnouncementTypeAlert, AnnouncementTypeEvent:
		return true
	}
	return false
}

// Announcement is broadcast content. Unlike listings, wide scope is explicit via flags.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Description string               `db:"description" json:"description"`
	Priority    AnnouncementPriority `db:"priority" json:"priority"`
	Type        AnnouncementType     `db:"announcement_type" json:"announcement_type"`
	Location
	IsProvinceWide     bool       `db:"is_province_wide" json:"is_province_wide"`
	IsMunicipalityWide bool       `db:"is_municipality_wide" json:"is_municipality_wide"`
	ContactInfo        string     `db:"contact_info" json:"contact_info,omitempty"`
	ExpiryDate         *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	AuthorID           string     `db:"author_id" json:"author_id"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// ExpiredOn reports whether the expiry date lies strictly before the calendar day of today.
// Both sides are compared as dates in their own location, never as instants.
func (a Announcement) ExpiredOn(today time.Time) bool {
	if a.ExpiryDate == nil {
		return false
	}
	return CalendarDate(*a.ExpiryDate).Before(CalendarDate(today))
}

// CalendarDate drops the clock and zone of t, keeping its wall-clock date at UTC midnight.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AnnouncementFilter carries orthogonal, non-location filters for announcement listings.
type AnnouncementFilter struct {
	Priority *AnnouncementPriority
	Type     *AnnouncementType
	Active   *bool
	AuthorID string
	Search   string
	Page     int
	PageSize int
}
