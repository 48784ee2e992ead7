// Package api exposes the HTTP surface of the RAG service.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"studypal/internal/embedding"
	"studypal/internal/extract"
	"studypal/internal/models"
	"studypal/internal/rag/pipeline"
	"studypal/internal/rag/schema"
	"studypal/internal/rag/storages/vectorstore"
	"studypal/internal/rag_service/service"
	"studypal/pkg/logger"
)

// RAGService is the slice of the service layer the handlers need. Kept as an
// interface so handler tests can run against a fake.
type RAGService interface {
	UploadDocuments(ctx context.Context, docs []schema.UploadedDocument) []service.UploadReport
	Query(ctx context.Context, query string, opts pipeline.QueryOptions) ([]schema.RetrievalResult, error)
	Chat(ctx context.Context, question string) (*service.ChatResponse, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// API provides the HTTP handlers for the RAG service.
type API struct {
	service        RAGService
	maxUploadBytes int64
	healthChecks   map[string]HealthCheck
	logger         *logger.Logger
}

// NewAPI creates the handler set. healthChecks may be nil.
func NewAPI(svc RAGService, maxUploadBytes int64, healthChecks map[string]HealthCheck) *API {
	return &API{
		service:        svc,
		maxUploadBytes: maxUploadBytes,
		healthChecks:   healthChecks,
		logger:         logger.New("api"),
	}
}

// UploadDocumentsHandler accepts a multipart upload under the "files" field
// and ingests every file. The response reports each document's outcome; a
// partial failure is still a 200 with per-document statuses.
func (a *API) UploadDocumentsHandler(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	docs := make([]schema.UploadedDocument, 0, len(files))
	for _, header := range files {
		if header.Size > a.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file %q exceeds the %d byte upload limit", header.Filename, a.maxUploadBytes),
			})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read file %q", header.Filename)})
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, a.maxUploadBytes+1))
		file.Close()
		if err != nil || int64(len(data)) > a.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file %q exceeds the %d byte upload limit", header.Filename, a.maxUploadBytes),
			})
			return
		}

		docs = append(docs, schema.UploadedDocument{
			Filename:  header.Filename,
			MediaType: header.Header.Get("Content-Type"),
			Data:      data,
		})
	}

	reports := a.service.UploadDocuments(c.Request.Context(), docs)
	c.JSON(http.StatusOK, gin.H{"documents": reports})
}

// QueryHandler answers a similarity query against the ingested corpus.
func (a *API) QueryHandler(c *gin.Context) {
	var payload struct {
		Query     string   `json:"query"`
		TopK      int      `json:"top_k"`
		Threshold *float32 `json:"threshold"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	results, err := a.service.Query(c.Request.Context(), payload.Query, pipeline.QueryOptions{
		TopK:      payload.TopK,
		Threshold: payload.Threshold,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ChatHandler answers a question, grounded on retrieved context when any is
// relevant.
func (a *API) ChatHandler(c *gin.Context) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	response, err := a.service.Chat(c.Request.Context(), payload.Question)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListDocumentsHandler returns the document registry, newest first.
func (a *API) ListDocumentsHandler(c *gin.Context) {
	docs, err := a.service.ListDocuments(c.Request.Context())
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// HealthHandler probes the configured dependencies and reports per-check
// status. Any failing check turns the response into a 503.
func (a *API) HealthHandler(c *gin.Context) {
	status := http.StatusOK
	checks := make(map[string]string, len(a.healthChecks))

	for name, check := range a.healthChecks {
		if err := check(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

// respondError maps domain errors onto HTTP status codes.
func (a *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, embedding.ErrInvalidInput), errors.Is(err, extract.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, embedding.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, embedding.ErrRemoteUnavailable), errors.Is(err, vectorstore.ErrStorageUnavailable):
		a.logger.WithError(err).Error("dependency unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		a.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
