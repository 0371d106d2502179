package persistence

import "strings"

// ValidateSortOrder normalizes the sort direction to ASC or DESC, defaulting
// to DESC for anything unrecognized.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks the field against a whitelist. Sort fields come
// from query strings and are interpolated into ORDER BY, so anything not
// whitelisted falls back to defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// BundleSortFields contains the allowed sort fields for bundle listings
var BundleSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"mode":       true,
	"active":     true,
}
