package constants

import (
	"strings"
)

type Category string

const (
	Groceries     Category = "Groceries"
	FoodDining    Category = "Food & Dining"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Shopping      Category = "Shopping"
	Entertainment Category = "Entertainment"
	Health        Category = "Health"
	Services      Category = "Services"
	Travel        Category = "Travel"
	Other         Category = "Other"
)

var allCategories = []Category{
	Groceries,
	FoodDining,
	Transport,
	Utilities,
	Shopping,
	Entertainment,
	Health,
	Services,
	Travel,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// IsValidCategory reports whether label is exactly one of the enum values.
func IsValidCategory(label string) bool {
	for _, cat := range allCategories {
		if label == string(cat) {
			return true
		}
	}
	return false
}

// Canonicalize maps free-form category labels onto the enum.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"food":        FoodDining,
		"dining":      FoodDining,
		"restaurant":  FoodDining,
		"grocery":     Groceries,
		"supermarket": Groceries,
		"taxi":        Transport,
		"fuel":        Transport,
		"petrol":      Transport,
		"medical":     Health,
		"pharmacy":    Health,
		"flight":      Travel,
		"hotel":       Travel,
		"cinema":      Entertainment,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
