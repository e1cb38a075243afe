package products

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter validation: every function either returns a sanitized value or an
// error describing why the raw input is unusable. Absent input ("") is
// valid and reported through the `ok`/zero-value side of the result, never
// as an error.

// PriceRange carries the validated bounds; either side may be absent.
type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// CategoryFilter is either a numeric id or a lower-cased exact name.
type CategoryFilter struct {
	Kind string `json:"type"` // "id" or "name"
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ValidateNumericId parses a numeric query value. Empty input yields
// ok=false with no error.
func ValidateNumericId(value, fieldName string) (float64, bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false, nil
	}
	num, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false, fmt.Errorf("Field %q must be a valid number", fieldName)
	}
	return num, true, nil
}

// ValidatePriceRange validates both bounds independently and then their
// relative order.
func ValidatePriceRange(minPrice, maxPrice string) (PriceRange, error) {
	var pr PriceRange

	if min, ok, err := ValidateNumericId(minPrice, "price_min"); err != nil {
		return PriceRange{}, err
	} else if ok {
		if min < 0 {
			return PriceRange{}, fmt.Errorf("price_min must be greater than or equal to 0")
		}
		pr.Min = &min
	}

	if max, ok, err := ValidateNumericId(maxPrice, "price_max"); err != nil {
		return PriceRange{}, err
	} else if ok {
		if max < 0 {
			return PriceRange{}, fmt.Errorf("price_max must be greater than or equal to 0")
		}
		pr.Max = &max
	}

	if pr.Min != nil && pr.Max != nil && *pr.Min > *pr.Max {
		return PriceRange{}, fmt.Errorf("price_min cannot be greater than price_max")
	}

	return pr, nil
}

// ValidateSearchTerm trims the term; empty input is absent, over-long
// input is rejected.
func ValidateSearchTerm(search string) (string, error) {
	trimmed := strings.TrimSpace(search)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > 100 {
		return "", fmt.Errorf("Search term cannot exceed 100 characters")
	}
	return trimmed, nil
}

// ValidateTags converts a comma-joined list into positive integer ids.
// Entries that do not parse are dropped silently; the tag filter is
// deliberately lenient.
func ValidateTags(tags string) []int64 {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(tags, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ValidateCategory accepts a numeric id or a name of at most 50
// characters; names are lower-cased for case-insensitive matching.
func ValidateCategory(category string) (*CategoryFilter, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return nil, nil
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return &CategoryFilter{Kind: "id", ID: id}, nil
	}
	if len(trimmed) > 50 {
		return nil, fmt.Errorf("Category name cannot exceed 50 characters")
	}
	return &CategoryFilter{Kind: "name", Name: strings.ToLower(trimmed)}, nil
}

// ValidateStringFilter trims a free-form filter value and bounds its
// length.
func ValidateStringFilter(value, fieldName string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxLength {
		return "", fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
	}
	return trimmed, nil
}
