package models

import (
	"time"

	"github.com/google/uuid"
)

// Book is the parent record for an ingested document. The slug is derived
// from the title and is unique across all books; two titles that normalize
// to the same slug refer to the same book.
type Book struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OwnerID       string    `json:"owner_id" db:"owner_id"`
	Slug          string    `json:"slug" db:"slug"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Persona       *string   `json:"persona,omitempty" db:"persona"` // NULL = default narrator voice
	FileURL       string    `json:"file_url" db:"file_url"`
	FileKey       string    `json:"file_key" db:"file_key"`
	CoverURL      *string   `json:"cover_url,omitempty" db:"cover_url"`
	CoverKey      *string   `json:"cover_key,omitempty" db:"cover_key"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	TotalSegments int       `json:"total_segments" db:"total_segments"` // updated once per ingestion batch
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// BookSegment is one retrievable chunk of a book's text. Segment indices are
// zero-based and contiguous within a book; (BookID, SegmentIndex) is unique.
type BookSegment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	BookID       uuid.UUID `json:"book_id" db:"book_id"`
	OwnerID      string    `json:"owner_id" db:"owner_id"`
	SegmentIndex int       `json:"segment_index" db:"segment_index"`
	PageNumber   *int      `json:"page_number,omitempty" db:"page_number"` // NULL when the source has no pagination
	Content      string    `json:"content" db:"content"`
	WordCount    int       `json:"word_count" db:"word_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IngestOutcome tags the result of an ingestion: a fresh creation or an
// existing book found under the same slug.
type IngestOutcome string

const (
	IngestOutcomeCreated       IngestOutcome = "created"
	IngestOutcomeAlreadyExists IngestOutcome = "already_exists"
)

// IngestResult is the result of a book ingestion.
type IngestResult struct {
	Outcome      IngestOutcome `json:"outcome"`
	Book         *Book         `json:"book"`
	SegmentCount int           `json:"segment_count"`
}
