package extract

import (
	"context"
	"strings"
)

// TextExtractor passes plain text and Markdown through unchanged, replacing
// invalid UTF-8 sequences so downstream rune counting stays sane. Registered
// last: text/plain sniffing matches a lot of inputs.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

func (e *TextExtractor) AcceptedMimeTypes() []string {
	return []string{"text/plain", "text/markdown", "text/csv"}
}

func (e *TextExtractor) AcceptedExtensions() []string {
	return []string{".txt", ".md", ".csv"}
}
