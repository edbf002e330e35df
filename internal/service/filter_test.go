package service

import (
	"testing"

	"estate-core/internal/model"
)

func TestCompileFilter_Strings(t *testing.T) {
	spec := CompileFilter(map[string]string{
		"country":      "  Portugal ",
		"region":       "",
		"city":         "   ",
		"propertyType": "Villa",
		"unknown":      "ignored",
	})

	if v, ok := spec.Country(); !ok || v != "Portugal" {
		t.Errorf("Country() = %q, %v; want Portugal, true", v, ok)
	}
	if _, ok := spec.Region(); ok {
		t.Error("empty region should be absent")
	}
	if _, ok := spec.City(); ok {
		t.Error("blank city should be absent")
	}
	if v, ok := spec.PropertyType(); !ok || v != "Villa" {
		t.Errorf("PropertyType() = %q, %v", v, ok)
	}
}

func TestCompileFilter_ListingType(t *testing.T) {
	tests := []struct {
		raw  string
		want model.ListingType
	}{
		{"", model.ListingTypeSale},
		{"sale", model.ListingTypeSale},
		{"rent", model.ListingTypeRent},
		{" RENT ", model.ListingTypeRent},
		{"lease", model.ListingTypeSale},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			spec := CompileFilter(map[string]string{"listingType": tt.raw})
			if got := spec.ListingType(); got != tt.want {
				t.Errorf("ListingType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileFilter_NilInput(t *testing.T) {
	spec := CompileFilter(nil)
	if spec.ListingType() != model.ListingTypeSale {
		t.Errorf("ListingType() = %q, want sale", spec.ListingType())
	}
	if _, ok := spec.MinPrice(); ok {
		t.Error("expected no price predicate")
	}
}

func TestCompileFilter_Numbers(t *testing.T) {
	tests := []struct {
		name         string
		raw          map[string]string
		wantMin      *float64
		wantMax      *float64
		wantBedrooms *int
		wantBaths    *int
	}{
		{
			name:    "valid prices",
			raw:     map[string]string{"minPrice": "100000", "maxPrice": "250000.50"},
			wantMin: f64(100000),
			wantMax: f64(250000.50),
		},
		{
			name:    "non-numeric min price is dropped",
			raw:     map[string]string{"minPrice": "abc", "maxPrice": "300000"},
			wantMax: f64(300000),
		},
		{
			name:    "inverted range is swapped",
			raw:     map[string]string{"minPrice": "500000", "maxPrice": "200000"},
			wantMin: f64(200000),
			wantMax: f64(500000),
		},
		{
			name: "negative and non-finite prices are dropped",
			raw:  map[string]string{"minPrice": "-1", "maxPrice": "Inf"},
		},
		{
			name: "NaN is dropped",
			raw:  map[string]string{"maxPrice": "NaN"},
		},
		{
			name:    "decimal point forms",
			raw:     map[string]string{"minPrice": ".5", "maxPrice": "1200."},
			wantMin: f64(0.5),
			wantMax: f64(1200),
		},
		{
			name: "digit separators are dropped",
			raw:  map[string]string{"minPrice": "1_000", "maxPrice": "2,000"},
		},
		{
			name: "exponent and hex forms are dropped",
			raw:  map[string]string{"minPrice": "1e5", "maxPrice": "0x1p3"},
		},
		{
			name: "signs and extra points are dropped",
			raw:  map[string]string{"minPrice": "+100", "maxPrice": "1.2.3"},
		},
		{
			name:         "bedrooms and bathrooms",
			raw:          map[string]string{"bedrooms": "3", "bathrooms": "0"},
			wantBedrooms: i(3),
			wantBaths:    i(0),
		},
		{
			name: "invalid counts are dropped",
			raw:  map[string]string{"bedrooms": "-2", "bathrooms": "2.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := CompileFilter(tt.raw)

			gotMin, okMin := spec.MinPrice()
			checkFloat(t, "MinPrice", gotMin, okMin, tt.wantMin)
			gotMax, okMax := spec.MaxPrice()
			checkFloat(t, "MaxPrice", gotMax, okMax, tt.wantMax)

			gotBeds, okBeds := spec.MinBedrooms()
			checkInt(t, "MinBedrooms", gotBeds, okBeds, tt.wantBedrooms)
			gotBaths, okBaths := spec.MinBathrooms()
			checkInt(t, "MinBathrooms", gotBaths, okBaths, tt.wantBaths)
		})
	}
}

func f64(v float64) *float64 { return &v }

func i(v int) *int { return &v }

func checkFloat(t *testing.T, name string, got float64, ok bool, want *float64) {
	t.Helper()
	switch {
	case want == nil && ok:
		t.Errorf("%s = %v, want absent", name, got)
	case want != nil && (!ok || got != *want):
		t.Errorf("%s = %v, %v; want %v", name, got, ok, *want)
	}
}

func checkInt(t *testing.T, name string, got int, ok bool, want *int) {
	t.Helper()
	switch {
	case want == nil && ok:
		t.Errorf("%s = %v, want absent", name, got)
	case want != nil && (!ok || got != *want):
		t.Errorf("%s = %v, %v; want %v", name, got, ok, *want)
	}
}
