package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Default search configuration values
const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50
	SearchLanguage     = "english" // text search configuration for the ranked tier
)

// SearchOptions configures a retrieval query against one book's segments.
type SearchOptions struct {
	// BookID scopes the search to a single book (required)
	BookID uuid.UUID

	// Query is the free-text search string (required)
	Query string

	// Limit is the maximum number of segments to return (default: 5)
	Limit int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Limit > MaxSearchLimit {
		opts.Limit = MaxSearchLimit
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.BookID == uuid.Nil {
		return fmt.Errorf("book id is required")
	}
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	return nil
}
