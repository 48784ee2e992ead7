// Package extract turns uploaded document bytes into plain text. Format
// handlers are registered against MIME types and extensions; the service
// picks one by sniffing the content, falling back to the declared media type
// when sniffing is inconclusive.
package extract

import (
	"context"
	"errors"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	"studypal/internal/rag/interfaces"
)

// ErrUnsupportedFormat is returned when no registered handler accepts the
// document's format.
var ErrUnsupportedFormat = errors.New("extract: unsupported document format")

// FormatExtractor handles one document family.
type FormatExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
	// AcceptedMimeTypes lists the MIME types this handler accepts.
	AcceptedMimeTypes() []string
	// AcceptedExtensions lists file extensions (with the leading dot) this
	// handler accepts, matched against the sniffed type's extension.
	AcceptedExtensions() []string
}

// Service dispatches extraction to the matching format handler.
type Service struct {
	handlers []FormatExtractor
}

// NewService returns a Service with all built-in handlers registered.
func NewService() *Service {
	s := &Service{}
	s.Register(NewPDFExtractor())
	s.Register(NewDocxExtractor())
	s.Register(NewXlsxExtractor())
	s.Register(NewHTMLExtractor())
	s.Register(NewTextExtractor())
	return s
}

// Register adds a format handler. Handlers are consulted in registration
// order, so more specific formats must be registered before catch-alls.
func (s *Service) Register(handler FormatExtractor) {
	s.handlers = append(s.handlers, handler)
}

// Extract converts document bytes to plain text. mediaType is the declared
// content type of the upload and may be empty; the sniffed content type wins
// when both match a handler.
func (s *Service) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	mtype := mimetype.Detect(data)

	for _, handler := range s.handlers {
		if accepts(handler, mtype) {
			return handler.Extract(ctx, data)
		}
	}

	// Sniffing failed to find a handler; trust the declared type. Covers
	// cases like markdown, which sniffs as plain text served under its own
	// media type.
	if mediaType != "" {
		for _, handler := range s.handlers {
			if slices.Contains(handler.AcceptedMimeTypes(), mediaType) {
				return handler.Extract(ctx, data)
			}
		}
	}

	return "", ErrUnsupportedFormat
}

func accepts(handler FormatExtractor, mtype *mimetype.MIME) bool {
	if slices.Contains(handler.AcceptedExtensions(), mtype.Extension()) {
		return true
	}
	return slices.ContainsFunc(handler.AcceptedMimeTypes(), mtype.Is)
}

var _ interfaces.Extractor = (*Service)(nil)
