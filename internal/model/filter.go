package model

import "strings"

// FilterSpec is a validated set of search predicates. It is built once per
// request by the filter compiler and is read-only afterwards.
type FilterSpec struct {
	country      string
	region       string
	city         string
	propertyType string
	listingType  ListingType
	minPrice     *float64
	maxPrice     *float64
	minBedrooms  *int
	minBathrooms *int
}

// FilterValues carries the already-validated fields of a FilterSpec
type FilterValues struct {
	Country      string
	Region       string
	City         string
	PropertyType string
	ListingType  ListingType
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MinBathrooms *int
}

// NewFilterSpec copies v into an immutable FilterSpec. Callers are expected to
// have normalised v already; no validation happens here.
func NewFilterSpec(v FilterValues) FilterSpec {
	return FilterSpec{
		country:      v.Country,
		region:       v.Region,
		city:         v.City,
		propertyType: v.PropertyType,
		listingType:  v.ListingType,
		minPrice:     copyFloat(v.MinPrice),
		maxPrice:     copyFloat(v.MaxPrice),
		minBedrooms:  copyInt(v.MinBedrooms),
		minBathrooms: copyInt(v.MinBathrooms),
	}
}

func (f FilterSpec) Country() (string, bool)      { return f.country, f.country != "" }
func (f FilterSpec) Region() (string, bool)       { return f.region, f.region != "" }
func (f FilterSpec) City() (string, bool)         { return f.city, f.city != "" }
func (f FilterSpec) PropertyType() (string, bool) { return f.propertyType, f.propertyType != "" }

// ListingType is always set on a compiled filter
func (f FilterSpec) ListingType() ListingType { return f.listingType }

func (f FilterSpec) MinPrice() (float64, bool) { return derefFloat(f.minPrice) }
func (f FilterSpec) MaxPrice() (float64, bool) { return derefFloat(f.maxPrice) }
func (f FilterSpec) MinBedrooms() (int, bool)  { return derefInt(f.minBedrooms) }
func (f FilterSpec) MinBathrooms() (int, bool) { return derefInt(f.minBathrooms) }

// Matches evaluates the filter against a single listing. It does not look at
// IsActive; visibility is the caller's concern.
func (f FilterSpec) Matches(l *Listing) bool {
	if v, ok := f.Country(); ok && !equalFold(l.Location.Country, v) {
		return false
	}
	if v, ok := f.Region(); ok && !equalFold(l.Location.Region, v) {
		return false
	}
	if v, ok := f.City(); ok && !equalFold(l.Location.City, v) {
		return false
	}
	if v, ok := f.PropertyType(); ok && !equalFold(l.PropertyType, v) {
		return false
	}
	if f.listingType != "" && l.ListingType != f.listingType {
		return false
	}
	if v, ok := f.MinPrice(); ok && l.Price < v {
		return false
	}
	if v, ok := f.MaxPrice(); ok && l.Price > v {
		return false
	}
	if v, ok := f.MinBedrooms(); ok && l.Bedrooms < v {
		return false
	}
	if v, ok := f.MinBathrooms(); ok && l.Bathrooms < v {
		return false
	}
	return true
}

// SortKey selects the result ordering. Every ordering is tie-broken by id
// descending.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortSizeDesc  SortKey = "size-desc"
)

// ParseSortKey maps a raw value to a SortKey, falling back to SortNewest
func ParseSortKey(raw string) SortKey {
	switch k := SortKey(raw); k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortSizeDesc:
		return k
	default:
		return SortNewest
	}
}

// PageSpec is an offset/limit window
type PageSpec struct {
	Offset int
	Limit  int
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func derefFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func derefInt(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
