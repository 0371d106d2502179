package bundle

import (
	"fmt"

	"github.com/bundleshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SelectedItem is a shopper's transient choice of one bundle item. It is an
// input to a single cart synchronization call and is never persisted.
type SelectedItem struct {
	BundleItemID uuid.UUID
	VariantID    uuid.UUID
	Quantity     int64
}

// TotalQuantity sums the requested quantities of a selection
func TotalQuantity(selection []SelectedItem) int64 {
	var total int64
	for _, s := range selection {
		total += s.Quantity
	}
	return total
}

// ValidateSelection checks a proposed selection against the bundle's
// selection rule. It is a pure function; failure names the violated rule via
// a VALIDATION_FAILED domain error and success returns nil.
func ValidateSelection(b *Bundle, selection []SelectedItem) error {
	seen := make(map[uuid.UUID]bool, len(selection))
	for _, s := range selection {
		if s.Quantity <= 0 {
			return validationError("Selected quantities must be positive")
		}
		if seen[s.BundleItemID] {
			return validationError("Selection contains the same bundle item twice")
		}
		seen[s.BundleItemID] = true
		if b.GetItem(s.BundleItemID) == nil {
			return validationError("Selection references an item that is not part of the bundle")
		}
	}

	count := len(selection)
	switch b.Mode {
	case SelectionAllRequired:
		if count != len(b.Items) {
			return validationError(fmt.Sprintf("Bundle requires all %d items to be selected", len(b.Items)))
		}
	case SelectionPickAny:
		if count < 1 {
			return validationError("At least one item must be selected")
		}
	case SelectionPickExact:
		if count != b.PickCount {
			return validationError(fmt.Sprintf("Bundle requires exactly %d items, got %d", b.PickCount, count))
		}
	case SelectionFlexible:
		if count < b.MinItems {
			return validationError(fmt.Sprintf("Bundle requires at least %d items, got %d", b.MinItems, count))
		}
		if b.MaxItems != nil && count > *b.MaxItems {
			return validationError(fmt.Sprintf("Bundle allows at most %d items, got %d", *b.MaxItems, count))
		}
	default:
		return validationError(fmt.Sprintf("Unknown selection mode %q", b.Mode))
	}

	// Required items must be present in every mode.
	for _, item := range b.Items {
		if item.Required && !seen[item.ID] {
			return validationError("Selection is missing a required bundle item")
		}
	}

	return nil
}

func validationError(message string) error {
	return &shared.DomainError{Code: "VALIDATION_FAILED", Message: message}
}
