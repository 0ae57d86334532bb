package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lectern/internal/domain"
	"lectern/internal/domain/models"
	"lectern/internal/domain/repositories"
)

// PostgresSegmentRepository implements the SegmentRepository interface
type PostgresSegmentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(config *RepositoryConfig) repositories.SegmentRepository {
	return &PostgresSegmentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const segmentColumns = `id, book_id, owner_id, segment_index, page_number, content, word_count, created_at`

func scanSegment(row pgx.Row) (*models.BookSegment, error) {
	var seg models.BookSegment
	err := row.Scan(
		&seg.ID,
		&seg.BookID,
		&seg.OwnerID,
		&seg.SegmentIndex,
		&seg.PageNumber,
		&seg.Content,
		&seg.WordCount,
		&seg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

func collectSegments(rows pgx.Rows) ([]models.BookSegment, error) {
	defer rows.Close()

	segments := []models.BookSegment{}
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, *seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}

	return segments, nil
}

// segmentInsertColumns is the column list CreateBatch binds per row.
const segmentInsertColumns = 8

// insertChunkSize keeps each multi-row INSERT well under PostgreSQL's 65535
// bind parameter ceiling (1000 rows * 8 columns = 8000 parameters).
const insertChunkSize = 1000

// buildSegmentInsert renders one multi-row INSERT for a chunk of segments,
// returning the statement and its bind arguments in row order.
func buildSegmentInsert(table string, segments []models.BookSegment) (string, []interface{}) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, book_id, owner_id, segment_index, page_number, content, word_count, created_at)
		VALUES
	`, table)

	args := make([]interface{}, 0, len(segments)*segmentInsertColumns)
	for i, seg := range segments {
		if i > 0 {
			query += ","
		}
		base := i * segmentInsertColumns
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			seg.ID,
			seg.BookID,
			seg.OwnerID,
			seg.SegmentIndex,
			seg.PageNumber,
			seg.Content,
			seg.WordCount,
			seg.CreatedAt,
		)
	}

	return query, args
}

// CreateBatch inserts all segments as multi-row statements, chunked to stay
// under the bind parameter limit. Run it inside a transaction so a failure
// in any chunk leaves nothing visible.
func (r *PostgresSegmentRepository) CreateBatch(ctx context.Context, segments []models.BookSegment) error {
	executor := GetExecutor(ctx, r.pool)

	for start := 0; start < len(segments); start += insertChunkSize {
		chunk := segments[start:min(start+insertChunkSize, len(segments))]
		query, args := buildSegmentInsert(r.tables.Segments, chunk)

		if _, err := executor.Exec(ctx, query, args...); err != nil {
			if IsPgDuplicateError(err) {
				return &domain.ConflictError{
					Message:      "segment batch collides with existing segment indices",
					ResourceType: "segment",
					ResourceID:   chunk[0].BookID.String(),
				}
			}
			return fmt.Errorf("insert segment batch: %w", err)
		}
	}

	return nil
}

// GetRange fetches a book's segments within an index range, ordered by
// ascending index.
func (r *PostgresSegmentRepository) GetRange(ctx context.Context, bookID uuid.UUID, fromIndex, toIndex int) ([]models.BookSegment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE book_id = $1 AND segment_index BETWEEN $2 AND $3
		ORDER BY segment_index ASC
	`, segmentColumns, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, bookID, fromIndex, toIndex)
	if err != nil {
		return nil, fmt.Errorf("get segment range: %w", err)
	}

	return collectSegments(rows)
}

// SearchRanked runs full-text search over one book's segments.
//
// PostgreSQL full-text search components:
// - to_tsvector(language, content): converts content to searchable tokens
// - plainto_tsquery(language, query): parses the free-text query
// - @@: full-text match operator
// - ts_rank(): ranks results by relevance (higher = better match)
//
// Errors surface to the caller; the retrieval service treats them as zero
// results and falls back to keyword matching.
func (r *PostgresSegmentRepository) SearchRanked(ctx context.Context, bookID uuid.UUID, query string, limit int) ([]models.BookSegment, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE book_id = $2
		  AND to_tsvector($1, content) @@ plainto_tsquery($1, $3)
		ORDER BY ts_rank(to_tsvector($1, content), plainto_tsquery($1, $3)) DESC
		LIMIT $4
	`, segmentColumns, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, models.SearchLanguage, bookID, query, limit)
	if err != nil {
		if IsPgUndefinedObjectError(err) {
			r.logger.Warn("full-text search configuration missing, check the search language and segment table",
				"book_id", bookID, "error", err)
		}
		return nil, fmt.Errorf("ranked segment search: %w", err)
	}

	return collectSegments(rows)
}

// SearchKeywords matches segments whose content contains any alternative of
// the given pattern, case-insensitively. Results come back in ascending
// segment order, restoring document reading order since no relevance score
// exists on this tier.
func (r *PostgresSegmentRepository) SearchKeywords(ctx context.Context, bookID uuid.UUID, pattern string, limit int) ([]models.BookSegment, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE book_id = $1 AND content ~* $2
		ORDER BY segment_index ASC
		LIMIT $3
	`, segmentColumns, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, bookID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword segment search: %w", err)
	}

	return collectSegments(rows)
}
