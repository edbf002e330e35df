package model

import (
	"time"
)

// ListingType is the commercial mode of a listing
type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

// Valid reports whether t is one of the known listing types
func (t ListingType) Valid() bool {
	return t == ListingTypeSale || t == ListingTypeRent
}

// Common property types. The set is open; any non-empty string is accepted.
const (
	PropertyTypeVilla     = "villa"
	PropertyTypeApartment = "apartment"
	PropertyTypePenthouse = "penthouse"
	PropertyTypeFarmhouse = "farmhouse"
	PropertyTypeStudio    = "studio"
)

// DefaultCurrency is applied when a listing is created without one
const DefaultCurrency = "EUR"

// Location is the free-text address of a listing
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// Listing represents a property offered for sale or rent
type Listing struct {
	ID               int64       `json:"id"`
	OwnerID          int64       `json:"owner_id"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Price            float64     `json:"price"`
	Currency         string      `json:"currency"`
	ListingType      ListingType `json:"listing_type"`
	PropertyType     string      `json:"property_type"`
	Location         Location    `json:"location"`
	Bedrooms         int         `json:"bedrooms"`
	Bathrooms        int         `json:"bathrooms"`
	AreaSquareMeters float64     `json:"area_sqm"`
	Features         []string    `json:"features"`
	Images           []string    `json:"images"` // first element is the cover image
	IsActive         bool        `json:"is_active"`
	IsFeatured       bool        `json:"is_featured"`
	ViewCount        int64       `json:"view_count"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// CoverImage returns the first image URL, or "" when the listing has none
func (l *Listing) CoverImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// ListingFields are the owner-supplied values for a new listing
type ListingFields struct {
	Title            string
	Description      string
	Price            float64
	Currency         string
	ListingType      ListingType
	PropertyType     string
	Location         Location
	Bedrooms         int
	Bathrooms        int
	AreaSquareMeters float64
	Features         []string
	Images           []string
	IsActive         *bool // nil means active
	IsFeatured       bool
}

// ListingPatch is a partial update. Nil fields are left untouched.
// Identity, ownership, view count and creation time are not patchable.
type ListingPatch struct {
	Title            *string
	Description      *string
	Price            *float64
	Currency         *string
	ListingType      *ListingType
	PropertyType     *string
	Country          *string
	Region           *string
	City             *string
	Address          *string
	Bedrooms         *int
	Bathrooms        *int
	AreaSquareMeters *float64
	Features         *[]string
	Images           *[]string
	IsActive         *bool
	IsFeatured       *bool
}

// IsEmpty reports whether the patch changes nothing
func (p ListingPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Currency == nil &&
		p.ListingType == nil && p.PropertyType == nil && p.Country == nil && p.Region == nil &&
		p.City == nil && p.Address == nil && p.Bedrooms == nil && p.Bathrooms == nil &&
		p.AreaSquareMeters == nil && p.Features == nil && p.Images == nil &&
		p.IsActive == nil && p.IsFeatured == nil
}

// Apply writes the non-nil patch fields onto l
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Currency != nil {
		l.Currency = *p.Currency
	}
	if p.ListingType != nil {
		l.ListingType = *p.ListingType
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.Country != nil {
		l.Location.Country = *p.Country
	}
	if p.Region != nil {
		l.Location.Region = *p.Region
	}
	if p.City != nil {
		l.Location.City = *p.City
	}
	if p.Address != nil {
		l.Location.Address = *p.Address
	}
	if p.Bedrooms != nil {
		l.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		l.Bathrooms = *p.Bathrooms
	}
	if p.AreaSquareMeters != nil {
		l.AreaSquareMeters = *p.AreaSquareMeters
	}
	if p.Features != nil {
		l.Features = append([]string(nil), (*p.Features)...)
	}
	if p.Images != nil {
		l.Images = append([]string(nil), (*p.Images)...)
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
	if p.IsFeatured != nil {
		l.IsFeatured = *p.IsFeatured
	}
}
