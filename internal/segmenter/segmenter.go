// Package segmenter turns raw document text into an ordered, overlapping
// sequence of fixed-size word-count segments. It is pure and stateless:
// page numbering and global index assignment happen in SplitPages, while
// Split itself knows nothing about pages.
package segmenter

import (
	"fmt"
	"strings"

	"lectern/internal/domain"
)

// Default window parameters, in words.
const (
	DefaultSegmentSize = 500
	DefaultOverlapSize = 50
)

// Segment is one window of the input text.
type Segment struct {
	Content    string
	LocalIndex int
	WordCount  int
}

// PageSegment is a segment with its global index and originating page.
type PageSegment struct {
	Content      string
	SegmentIndex int
	PageNumber   int // 1-based
	WordCount    int
}

// Split tokenizes text on runs of whitespace and produces a sliding window:
// window i covers segmentSize tokens, the next window starts overlapSize
// tokens before the previous end, so consecutive segments share exactly
// overlapSize tokens. The final segment may be shorter and ends iteration
// immediately. Zero tokens yield an empty slice, not an error.
func Split(text string, segmentSize, overlapSize int) ([]Segment, error) {
	if segmentSize <= 0 {
		return nil, fmt.Errorf("%w: segment size must be greater than 0", domain.ErrValidation)
	}
	if overlapSize < 0 || overlapSize >= segmentSize {
		return nil, fmt.Errorf("%w: overlap size must be >= 0 and < segment size", domain.ErrValidation)
	}

	words := strings.Fields(text)

	var segments []Segment
	index := 0
	start := 0

	for start < len(words) {
		end := start + segmentSize
		if end > len(words) {
			end = len(words)
		}

		window := words[start:end]
		segments = append(segments, Segment{
			Content:    strings.Join(window, " "),
			LocalIndex: index,
			WordCount:  len(window),
		})
		index++

		if end >= len(words) {
			break
		}
		start = end - overlapSize
	}

	return segments, nil
}

// SplitPages segments each page independently, then renumbers indices
// globally across all pages and attaches the 1-based page number. Empty
// pages contribute no segments.
func SplitPages(pages []string, segmentSize, overlapSize int) ([]PageSegment, error) {
	var out []PageSegment
	global := 0

	for i, page := range pages {
		segs, err := Split(page, segmentSize, overlapSize)
		if err != nil {
			return nil, err
		}
		for _, seg := range segs {
			out = append(out, PageSegment{
				Content:      seg.Content,
				SegmentIndex: global,
				PageNumber:   i + 1,
				WordCount:    seg.WordCount,
			})
			global++
		}
	}

	return out, nil
}
