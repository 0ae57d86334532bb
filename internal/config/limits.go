package config

const (
	// MaxBookTitleLength is the maximum length for book titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxBookTitleLength = 255

	// MaxAuthorNameLength is the maximum length for author names.
	// Same bound as titles for consistency.
	MaxAuthorNameLength = 255

	// MaxSearchQueryLength bounds free-text retrieval queries. Longer
	// queries add no recall and bloat the fallback regex pattern.
	MaxSearchQueryLength = 500
)
