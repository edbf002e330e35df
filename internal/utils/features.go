package utils

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// featureAliases maps lower-cased spellings to the canonical feature name
var featureAliases = map[string]string{
	"pool":             "Swimming pool",
	"swimming pool":    "Swimming pool",
	"gym":              "Gym",
	"gymnasium":        "Gym",
	"fitness":          "Gym",
	"fitness center":   "Gym",
	"aircon":           "Air conditioning",
	"air conditioner":  "Air conditioning",
	"air conditioning": "Air conditioning",
	"a/c":              "Air conditioning",
	"ac":               "Air conditioning",
	"parking":          "Parking",
	"car park":         "Parking",
	"garage":           "Parking",
	"covered parking":  "Parking",
	"security":         "24-hour security",
	"24hr security":    "24-hour security",
	"24-hour security": "24-hour security",
	"balcony":          "Balcony",
	"terrace":          "Terrace",
	"garden":           "Garden",
	"sea view":         "Sea view",
	"ocean view":       "Sea view",
	"bbq":              "BBQ area",
	"barbecue":         "BBQ area",
	"fireplace":        "Fireplace",
	"elevator":         "Elevator",
	"lift":             "Elevator",
	"furnished":        "Furnished",
}

// NormalizeFeature trims a feature tag and maps common aliases to a single
// spelling. Unknown tags keep their text with the first letter upper-cased.
func NormalizeFeature(feature string) string {
	trimmed := strings.Join(strings.Fields(feature), " ")
	if trimmed == "" {
		return ""
	}

	if canonical, ok := featureAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}

	r, size := utf8.DecodeRuneInString(trimmed)
	return string(unicode.ToUpper(r)) + trimmed[size:]
}

// NormalizeFeatures turns free-text tags into a set: normalised, blanks
// removed, case-insensitive duplicates collapsed, sorted.
func NormalizeFeatures(features []string) []string {
	seen := make(map[string]bool, len(features))
	result := make([]string, 0, len(features))

	for _, f := range features {
		n := NormalizeFeature(f)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, n)
	}

	sort.Strings(result)
	return result
}

// CleanImages drops blank URLs and trims the rest, keeping order so the
// first entry stays the cover image.
func CleanImages(images []string) []string {
	result := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			result = append(result, img)
		}
	}
	return result
}
