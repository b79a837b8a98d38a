package models

import "time"

// ListingStatus tracks the lifecycle of a listing.
type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "active"
	ListingStatusSold    ListingStatus = "sold"
	ListingStatusExpired ListingStatus = "expired"
	ListingStatusHidden  ListingStatus = "hidden"
)

// Valid reports whether the status is one of the known values.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusActive, ListingStatusSold, ListingStatusExpired, ListingStatusHidden:
		return true
	}
	return false
}

// ListingCondition describes the state of the item on sale.
type ListingCondition string

const (
	ConditionNew           ListingCondition = "new"
	ConditionLikeNew       ListingCondition = "like_new"
	ConditionGood          ListingCondition = "good"
	ConditionFair          ListingCondition = "fair"
	ConditionForParts      ListingCondition = "for_parts"
	ConditionNotApplicable ListingCondition = "not_applicable"
)

// PropertyType classifies real-estate listings.
type PropertyType string

const (
	PropertyHouse      PropertyType = "house"
	PropertyLand       PropertyType = "land"
	PropertyApartment  PropertyType = "apartment"
	PropertyCommercial PropertyType = "commercial"
	PropertyCondo      PropertyType = "condo"
)

// Valid reports whether the property type is known.
func (p PropertyType) Valid() bool {
	switch p {
	case PropertyHouse, PropertyLand, PropertyApartment, PropertyCommercial, PropertyCondo:
		return true
	}
	return false
}

// DefaultListingLifetime is how long a listing stays active before the sweeper expires it.
const DefaultListingLifetime = 60 * 24 * time.Hour

// Listing is a seller's marketplace post. Scope is inferred from which location references are null.
type Listing struct {
	ID           string           `db:"id" json:"id"`
	Title        string           `db:"title" json:"title"`
	Description  string           `db:"description" json:"description"`
	Price        *float64         `db:"price" json:"price"`
	PropertyType *PropertyType    `db:"property_type" json:"property_type,omitempty"`
	AreaSqm      *float64         `db:"area_sqm" json:"area_sqm,omitempty"`
	Bedrooms     *int             `db:"bedrooms" json:"bedrooms,omitempty"`
	Bathrooms    *int             `db:"bathrooms" json:"bathrooms,omitempty"`
	CategoryID   string           `db:"category_id" json:"category_id"`
	Condition    ListingCondition `db:"condition" json:"condition"`
	Location
	SellerID   string        `db:"seller_id" json:"seller_id"`
	Status     ListingStatus `db:"status" json:"status"`
	ViewsCount int           `db:"views_count" json:"views_count"`
	Featured   bool          `db:"featured" json:"featured"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
	ExpiresAt  *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
}

// IsExpired reports whether the listing has outlived its expiry timestamp.
func (l Listing) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// ListingFilter carries the orthogonal, non-location filters applied before visibility resolution.
type ListingFilter struct {
	CategoryID   string
	PropertyType string
	Status       []ListingStatus
	SellerID     string
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
	// SearchSeller matches Search against the title or the seller's username.
	SearchSeller bool
	Ordering     string
	Page         int
	PageSize     int
}
