package annotation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/annolens/annolens/pkg/errors"
)

const buffer = "The study found that 45% of people agree."

func TestNewSnapshotsText(t *testing.T) {
	a, err := New("ann-1", 4, 9, KindComment, buffer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text != "study" {
		t.Errorf("expected snapshot %q, got %q", "study", a.Text)
	}
	if a.Category != CategoryManual {
		t.Errorf("expected manual category by default, got %s", a.Category)
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewRejectsBadRanges(t *testing.T) {
	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 5},
		{"start after end", 10, 4},
		{"end past buffer", 0, len(buffer) + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("ann-1", tc.start, tc.end, KindHighlight, buffer)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.ErrCodeAnnotationInvalidRange) {
				t.Errorf("expected invalid-range code, got %v", err)
			}
		})
	}
}

func TestNewAllowsEmptyRange(t *testing.T) {
	// start == end is within the invariant; emptiness is a policy question
	// for callers, not a bounds violation.
	if _, err := New("ann-1", 5, 5, KindComment, buffer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRejectsUnknownKindAndColor(t *testing.T) {
	if _, err := New("ann-1", 0, 3, Kind("margin-note"), buffer); err == nil {
		t.Error("expected unknown kind to be rejected")
	}
	_, err := New("ann-1", 0, 3, KindHighlight, buffer, WithColor(Color("magenta")))
	if !errors.IsCode(err, errors.ErrCodeAnnotationInvalidColor) {
		t.Errorf("expected invalid-color code, got %v", err)
	}
}

func TestContainsAndOverlaps(t *testing.T) {
	a, _ := New("a", 0, 10, KindHighlight, buffer)
	b, _ := New("b", 5, 15, KindHighlight, buffer)
	c, _ := New("c", 10, 12, KindHighlight, buffer)

	if !a.Contains(0) || !a.Contains(9) || a.Contains(10) {
		t.Error("Contains must honor the half-open range")
	}
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("expected a and b to overlap")
	}
	if a.Overlaps(c) {
		t.Error("ranges touching at a boundary do not overlap")
	}
}

func TestDeriveKey(t *testing.T) {
	if got := DeriveKey("  hello   world\n\tagain  "); got != "hello world again" {
		t.Errorf("whitespace collapse failed: %q", got)
	}

	long := strings.Repeat("abcde ", 20)
	if got := DeriveKey(long); len(got) != 50 {
		t.Errorf("expected 50-char key, got %d chars", len(got))
	}

	if DeriveKey("") != "" {
		t.Error("empty text derives an empty key")
	}
}

func TestDeriveKeyMultibyteBoundary(t *testing.T) {
	long := strings.Repeat("研究", 40)
	got := DeriveKey(long)
	if !utf8.ValidString(got) {
		t.Errorf("key splits a rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("expected 50-rune key, got %d runes", n)
	}
}

func TestIDGeneratorUniqueness(t *testing.T) {
	g := NewIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestIDGeneratorConcurrent(t *testing.T) {
	g := NewIDGenerator()
	const workers, perWorker = 8, 200
	out := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				out <- g.Next()
			}
		}()
	}
	seen := make(map[string]bool)
	for i := 0; i < workers*perWorker; i++ {
		id := <-out
		if seen[id] {
			t.Fatalf("duplicate id under concurrency: %s", id)
		}
		seen[id] = true
	}
}
