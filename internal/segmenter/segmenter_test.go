package segmenter

import (
	"errors"
	"strings"
	"testing"

	"lectern/internal/domain"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "w" + string(rune('a'+i%26))
	}
	return strings.Join(words, " ")
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name        string
		segmentSize int
		overlapSize int
	}{
		{"zero segment size", 0, 0},
		{"negative segment size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals segment size", 10, 10},
		{"overlap exceeds segment size", 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("some text here", tt.segmentSize, tt.overlapSize)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		segs, err := Split(input, 500, 50)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", input, err)
		}
		if len(segs) != 0 {
			t.Errorf("expected no segments for %q, got %d", input, len(segs))
		}
	}
}

func TestSplit_SingleWindow(t *testing.T) {
	segs, err := Split("one two three", 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Content != "one two three" {
		t.Errorf("content = %q, want %q", segs[0].Content, "one two three")
	}
	if segs[0].WordCount != 3 {
		t.Errorf("word count = %d, want 3", segs[0].WordCount)
	}
	if segs[0].LocalIndex != 0 {
		t.Errorf("local index = %d, want 0", segs[0].LocalIndex)
	}
}

func TestSplit_OverlapWindows(t *testing.T) {
	// 12 words, window 5, overlap 2: windows [0,5) [3,8) [6,11) [9,12)
	text := "a b c d e f g h i j k l"
	segs, err := Split(text, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a b c d e", "d e f g h", "g h i j k", "j k l"}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(segs))
	}
	for i, seg := range segs {
		if seg.Content != want[i] {
			t.Errorf("segment %d content = %q, want %q", i, seg.Content, want[i])
		}
		if seg.LocalIndex != i {
			t.Errorf("segment %d local index = %d, want %d", i, seg.LocalIndex, i)
		}
		if seg.WordCount != len(strings.Fields(seg.Content)) {
			t.Errorf("segment %d word count = %d, want %d", i, seg.WordCount, len(strings.Fields(seg.Content)))
		}
	}
}

func TestSplit_ExactFitEmitsNoTrailingSegment(t *testing.T) {
	// 10 words with window 5, overlap 2: [0,5) [3,8) [6,10) - the window
	// reaching the end must terminate iteration with no empty tail.
	segs, err := Split(makeWords(10), 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	last := segs[len(segs)-1]
	if last.WordCount == 0 {
		t.Error("trailing empty segment emitted")
	}
}

func TestSplit_ContiguityAndCoverage(t *testing.T) {
	tests := []struct {
		name        string
		words       int
		segmentSize int
		overlapSize int
	}{
		{"small", 7, 3, 1},
		{"typical", 1250, 500, 50},
		{"window larger than input", 40, 500, 50},
		{"no overlap", 100, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := makeWords(tt.words)
			words := strings.Fields(text)

			segs, err := Split(text, tt.segmentSize, tt.overlapSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Replay the window arithmetic: every window must match its
			// slice of the token stream and the last window must reach the end.
			start := 0
			for i, seg := range segs {
				if seg.LocalIndex != i {
					t.Errorf("local index %d at position %d", seg.LocalIndex, i)
				}
				end := start + tt.segmentSize
				if end > len(words) {
					end = len(words)
				}
				want := strings.Join(words[start:end], " ")
				if seg.Content != want {
					t.Errorf("segment %d content = %q, want %q", i, seg.Content, want)
				}
				if seg.WordCount != end-start {
					t.Errorf("segment %d word count = %d, want %d", i, seg.WordCount, end-start)
				}
				if i == len(segs)-1 && end != len(words) {
					t.Errorf("final segment ends at %d, want %d", end, len(words))
				}
				start = end - tt.overlapSize
			}
		})
	}
}

func TestSplitPages_GlobalRenumbering(t *testing.T) {
	pages := []string{
		makeWords(7), // 3 segments at window 3 overlap 1
		"",           // empty page contributes nothing
		makeWords(4), // 2 segments
	}

	segs, err := SplitPages(pages, 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segs))
	}

	wantPages := []int{1, 1, 1, 3, 3}
	for i, seg := range segs {
		if seg.SegmentIndex != i {
			t.Errorf("segment index = %d, want %d", seg.SegmentIndex, i)
		}
		if seg.PageNumber != wantPages[i] {
			t.Errorf("segment %d page = %d, want %d", i, seg.PageNumber, wantPages[i])
		}
	}
}

func TestSplitPages_InvalidParameters(t *testing.T) {
	_, err := SplitPages([]string{"a b c"}, 0, 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"lowercases and hyphenates", "Pride and Prejudice", "pride-and-prejudice"},
		{"strips file extension", "Moby Dick.pdf", "moby-dick"},
		{"strips punctuation", "The Count of Monte-Cristo!", "the-count-of-monte-cristo"},
		{"collapses whitespace and underscores", "war  _ and__peace", "war-and-peace"},
		{"trims edge hyphens", "  --Dracula--  ", "dracula"},
		{"empty title", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.title)
			if got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
			// derivation is idempotent over the same input
			if again := Slug(tt.title); again != got {
				t.Errorf("Slug(%q) second call = %q, first = %q", tt.title, again, got)
			}
		})
	}
}

func TestSlug_IntentionalCollision(t *testing.T) {
	a := Slug("Moby Dick.pdf")
	b := Slug("moby   dick")
	if a != b {
		t.Errorf("expected colliding slugs, got %q and %q", a, b)
	}
}
