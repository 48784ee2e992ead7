// Package splitters provides text chunking strategies for the ingestion
// pipeline.
package splitters

import (
	"context"
	"strings"

	"studypal/internal/rag/interfaces"
)

// defaultSeparators is the fallback hierarchy: paragraph breaks first, then
// line breaks, then spaces, and finally individual characters when nothing
// else fits.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacterSplitter splits text by a separator hierarchy: it cuts on
// the coarsest separator that appears in the text, recursing into any piece
// still longer than ChunkSize with the next finer separator, then merges
// adjacent pieces back into chunks of at most ChunkSize runes with
// ChunkOverlap runes carried over between consecutive chunks.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewRecursiveCharacterSplitter builds a splitter with the default separator
// hierarchy. ChunkOverlap must be smaller than ChunkSize; configuration
// validation enforces that before a splitter is ever constructed.
func NewRecursiveCharacterSplitter(chunkSize, chunkOverlap int) *RecursiveCharacterSplitter {
	return &RecursiveCharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   defaultSeparators,
	}
}

// Split chunks the text. Whitespace-only input yields no chunks. Every
// returned chunk is non-empty and at most ChunkSize runes, except when a
// single unbreakable run exceeds ChunkSize on the finest separator.
func (s *RecursiveCharacterSplitter) Split(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	separators := s.Separators
	if len(separators) == 0 {
		separators = defaultSeparators
	}

	chunks := s.splitText(text, separators)

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *RecursiveCharacterSplitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	remaining := separators
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, separator)

	var final []string
	var pending []string
	for _, piece := range splits {
		if runeLen(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.merge(pending, separator)...)
			pending = nil
		}
		if len(remaining) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, remaining)...)
		}
	}
	if len(pending) > 0 {
		final = append(final, s.merge(pending, separator)...)
	}
	return final
}

// merge packs adjacent splits into chunks of at most ChunkSize runes. When a
// chunk closes, splits are dropped from the front of the window until the
// retained tail fits within ChunkOverlap, so the next chunk starts with the
// end of the previous one.
func (s *RecursiveCharacterSplitter) merge(splits []string, separator string) []string {
	sepLen := runeLen(separator)

	var chunks []string
	var window []string
	total := 0

	for _, piece := range splits {
		pieceLen := runeLen(piece)
		if total+pieceLen+sepLen*len(window) > s.ChunkSize && len(window) > 0 {
			if chunk := joinTrimmed(window, separator); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap ||
				(total+pieceLen+sepLen*len(window) > s.ChunkSize && total > 0) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += pieceLen
	}

	if chunk := joinTrimmed(window, separator); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitOn splits the text on the separator, keeping the separator out of the
// pieces; the empty separator splits into individual runes.
func splitOn(text, separator string) []string {
	if separator == "" {
		runes := []rune(text)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}

	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinTrimmed(window []string, separator string) string {
	return strings.TrimSpace(strings.Join(window, separator))
}

func runeLen(s string) int {
	return len([]rune(s))
}

var _ interfaces.Splitter = (*RecursiveCharacterSplitter)(nil)
