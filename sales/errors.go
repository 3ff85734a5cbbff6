/*
errors.go - Centralized error types for the sales engine

PURPOSE:
  All error types in one place. Stores and handlers wrap these with
  fmt.Errorf("...: %w", err) and the HTTP layer classifies them with
  IsClientError / IsNotFound.

ERROR CATEGORIES:
  1. Input errors - malformed dates, unknown report types, bad references
  2. Lookup errors - records that do not exist
  3. Store errors - anything else, surfaced as 500

SEE ALSO:
  - api/handlers.go: Maps these to HTTP status codes
*/
package sales

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is the parent of every client-side validation failure.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidReportType = fmt.Errorf("%w: unknown report type", ErrInvalidInput)

	// ErrInvalidRange is returned when a date range ends before it starts
	// or a date cannot be parsed.
	ErrInvalidRange = fmt.Errorf("%w: invalid date range", ErrInvalidInput)

	// ErrInvalidMenuItem is returned when an order references a menu item
	// that does not exist.
	ErrInvalidMenuItem = fmt.Errorf("%w: MenuItem ID is invalid", ErrInvalidInput)

	ErrCategoryInUse = fmt.Errorf("%w: category has menu items", ErrInvalidInput)

	ErrReportNotFound   = errors.New("report not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CategoryInUseError reports how many menu items still use a category.
type CategoryInUseError struct {
	CategoryID     string
	MenuItemsCount int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("cannot delete category %s: %d menu items use it", e.CategoryID, e.MenuItemsCount)
}

func (e *CategoryInUseError) Unwrap() error {
	return ErrCategoryInUse
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReportNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrMenuItemNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}
