package splitters

import (
	"context"
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewRecursiveCharacterSplitter(100, 20)

	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := s.Split(context.Background(), text)
		if err != nil {
			t.Fatalf("Split(%q) returned error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", text, chunks)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	s := NewRecursiveCharacterSplitter(100, 20)

	chunks, err := s.Split(context.Background(), "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("expected single chunk [hello world], got %v", chunks)
	}
}

func TestSplitWordBoundaries(t *testing.T) {
	s := NewRecursiveCharacterSplitter(10, 3)

	chunks, err := s.Split(context.Background(), "aaaa bbbb cccc dddd")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"aaaa bbbb", "cccc dddd"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %v", len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	s := NewRecursiveCharacterSplitter(10, 5)

	chunks, err := s.Split(context.Background(), "aaaa bbbb cccc")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"aaaa bbbb", "bbbb cccc"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %v", len(want), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewRecursiveCharacterSplitter(50, 10)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog.\n\n")
	}
	text := b.String()

	chunks, err := s.Split(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 50 {
			t.Errorf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not a substring of the input: %q", i, c)
		}
	}
}

func TestSplitUnbreakableRun(t *testing.T) {
	s := NewRecursiveCharacterSplitter(10, 0)

	chunks, err := s.Split(context.Background(), strings.Repeat("x", 30))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %v", chunks)
	}
	for i, c := range chunks {
		if c != strings.Repeat("x", 10) {
			t.Errorf("chunk %d = %q, want 10 x's", i, c)
		}
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	s := NewRecursiveCharacterSplitter(12, 0)

	chunks, err := s.Split(context.Background(), "first part\n\nsecond part\n\nthird part")
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %v", chunks)
	}
	want := []string{"first part", "second part", "third part"}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplitCancelledContext(t *testing.T) {
	s := NewRecursiveCharacterSplitter(100, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Split(ctx, "some text"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
