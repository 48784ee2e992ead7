package extract

import (
	"context"
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLExtractor converts HTML to Markdown, dropping tags while keeping
// headings and list structure as plain text the splitter can work with.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return markdown, nil
}

func (e *HTMLExtractor) AcceptedMimeTypes() []string {
	return []string{"text/html"}
}

func (e *HTMLExtractor) AcceptedExtensions() []string {
	return []string{".html", ".htm"}
}
