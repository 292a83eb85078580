package errors

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxGridCells bounds each grid dimension.
const MaxGridCells = 500

// MaxMarkupBytes bounds imported markup fragments.
const MaxMarkupBytes = 1 << 20

// ValidateGrid checks that both grid dimensions are in [1, MaxGridCells].
func ValidateGrid(xCells, yCells int) error {
	if xCells < 1 || yCells < 1 {
		return New(ErrCodeInvalidGrid, "grid must be at least 1x1, got %dx%d", xCells, yCells)
	}
	if xCells > MaxGridCells || yCells > MaxGridCells {
		return New(ErrCodeInvalidGrid, "grid too large (max %dx%d), got %dx%d",
			MaxGridCells, MaxGridCells, xCells, yCells)
	}
	return nil
}

// ValidateImageURL checks a background image location.
//
// Validation rules:
//   - Location cannot be empty
//   - No control characters, quotes or parentheses (they would break url(...))
//   - Absolute URLs must use http, https or data
//   - Relative references are accepted as-is
func ValidateImageURL(location string) error {
	if location == "" {
		return New(ErrCodeInvalidURL, "image URL cannot be empty")
	}

	for _, r := range location {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidURL, "image URL contains invalid control characters")
		}
	}
	if strings.ContainsAny(location, `"'()`) {
		return New(ErrCodeInvalidURL, "image URL cannot contain quotes or parentheses")
	}

	u, err := url.Parse(location)
	if err != nil {
		return Wrap(ErrCodeInvalidURL, err, "invalid image URL %q", location)
	}
	switch u.Scheme {
	case "", "http", "https", "data":
		return nil
	default:
		return New(ErrCodeInvalidURL, "image URL must use http, https or data scheme")
	}
}

// ValidateID checks that id is a UUID as issued for documents, snapshots and cells.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid id %q", id)
	}
	return nil
}

// ValidateName checks a user-supplied snapshot name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - No control characters
//   - No path separators
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidName, "name cannot contain path separators")
	}
	return nil
}

// ValidateMarkupSize rejects markup larger than MaxMarkupBytes.
func ValidateMarkupSize(n int) error {
	if n > MaxMarkupBytes {
		return New(ErrCodeInvalidMarkup, "markup too large (%d bytes, max %d)", n, MaxMarkupBytes)
	}
	return nil
}
