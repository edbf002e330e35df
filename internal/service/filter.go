package service

import (
	"math"
	"strconv"
	"strings"

	"estate-core/internal/model"
)

// Search keys understood by CompileFilter
const (
	FilterKeyCountry      = "country"
	FilterKeyRegion       = "region"
	FilterKeyCity         = "city"
	FilterKeyPropertyType = "propertyType"
	FilterKeyListingType  = "listingType"
	FilterKeyMinPrice     = "minPrice"
	FilterKeyMaxPrice     = "maxPrice"
	FilterKeyBedrooms     = "bedrooms"
	FilterKeyBathrooms    = "bathrooms"
)

// CompileFilter turns raw, untrusted search input into a FilterSpec.
//
// It never fails: a value that cannot be parsed is treated as if the key was
// absent, so search keeps working when a single parameter is garbage.
// Unknown keys are ignored.
func CompileFilter(raw map[string]string) model.FilterSpec {
	v := model.FilterValues{
		Country:      trimmed(raw, FilterKeyCountry),
		Region:       trimmed(raw, FilterKeyRegion),
		City:         trimmed(raw, FilterKeyCity),
		PropertyType: trimmed(raw, FilterKeyPropertyType),
		ListingType:  parseListingType(raw[FilterKeyListingType]),
		MinPrice:     parsePrice(raw[FilterKeyMinPrice]),
		MaxPrice:     parsePrice(raw[FilterKeyMaxPrice]),
		MinBedrooms:  parseCount(raw[FilterKeyBedrooms]),
		MinBathrooms: parseCount(raw[FilterKeyBathrooms]),
	}

	if v.MinPrice != nil && v.MaxPrice != nil && *v.MinPrice > *v.MaxPrice {
		v.MinPrice, v.MaxPrice = v.MaxPrice, v.MinPrice
	}

	return model.NewFilterSpec(v)
}

func trimmed(raw map[string]string, key string) string {
	return strings.TrimSpace(raw[key])
}

func parseListingType(value string) model.ListingType {
	lt := model.ListingType(strings.ToLower(strings.TrimSpace(value)))
	if !lt.Valid() {
		return model.ListingTypeSale
	}
	return lt
}

// parsePrice accepts plain non-negative decimals such as "250000" or "99.5".
// Exponents, hex, digit separators and Inf/NaN are rejected.
func parsePrice(value string) *float64 {
	value = strings.TrimSpace(value)
	if !isDecimal(value) {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// isDecimal reports whether s is digits with at most one decimal point
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// parseCount accepts non-negative integers
func parseCount(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
