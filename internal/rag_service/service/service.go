// Package service orchestrates the ingestion and retrieval pipelines with
// the surrounding infrastructure: the document registry, the upload archive,
// the status event stream, and the circuit breaker guarding retrieval.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"studypal/internal/database/kafka"
	"studypal/internal/database/minio"
	"studypal/internal/models"
	"studypal/internal/rag/pipeline"
	"studypal/internal/rag/schema"
	"studypal/internal/rag_service/dal"
	"studypal/pkg/circuitbreaker"
	"studypal/pkg/logger"
)

// UploadReport is the per-document outcome of an upload request.
type UploadReport struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

// ChatResponse is the answer to a chat question plus the material it was
// grounded on. ContextUsed is false when retrieval found nothing or was
// unavailable and the model answered from general knowledge.
type ChatResponse struct {
	Answer      string                   `json:"answer"`
	Sources     []schema.RetrievalResult `json:"sources"`
	ContextUsed bool                     `json:"context_used"`
}

// Service exposes the application operations behind the HTTP handlers.
// The registry, archive, events, and breaker fields are optional; a nil
// field disables that integration.
type Service struct {
	ingestion *pipeline.Ingestion
	retrieval *pipeline.Retrieval
	qa        *pipeline.QA
	registry  *dal.DocumentDAL
	archive   *minio.Client
	events    *kafka.StatusPublisher
	breaker   circuitbreaker.CircuitBreaker
	log       *logger.Logger
}

// Options carries the optional integrations.
type Options struct {
	Registry *dal.DocumentDAL
	Archive  *minio.Client
	Events   *kafka.StatusPublisher
	Breaker  circuitbreaker.CircuitBreaker
}

// New builds the service.
func New(ingestion *pipeline.Ingestion, retrieval *pipeline.Retrieval, qa *pipeline.QA, opts Options) *Service {
	return &Service{
		ingestion: ingestion,
		retrieval: retrieval,
		qa:        qa,
		registry:  opts.Registry,
		archive:   opts.Archive,
		events:    opts.Events,
		breaker:   opts.Breaker,
		log:       logger.New("rag_service"),
	}
}

// UploadDocuments ingests a batch of uploads and reports the outcome of each
// one. Documents are processed concurrently; one failing never blocks the
// others. The registry and archive are updated per document, and a status
// event is published for each outcome.
func (s *Service) UploadDocuments(ctx context.Context, docs []schema.UploadedDocument) []UploadReport {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.New().String()
		s.registerUpload(ctx, ids[i], doc)
	}

	results := s.ingestion.IngestAll(ctx, docs)

	reports := make([]UploadReport, len(results))
	for i, res := range results {
		report := UploadReport{
			ID:       ids[i],
			Filename: res.Filename,
			Chunks:   res.Chunks,
			Status:   models.DocumentStatusIngested,
		}
		if res.Err != nil {
			report.Status = models.DocumentStatusFailed
			report.Error = res.Err.Error()
		}
		reports[i] = report

		s.recordOutcome(ctx, report)
	}
	return reports
}

func (s *Service) registerUpload(ctx context.Context, id string, doc schema.UploadedDocument) {
	objectKey := ""
	if s.archive != nil {
		key := fmt.Sprintf("%s/%s", id, doc.Filename)
		archived, err := s.archive.Archive(ctx, key, doc.Data, doc.MediaType)
		if err != nil {
			// The archive is an audit copy; losing it does not invalidate
			// the ingestion itself.
			s.log.WithError(err).WithField("filename", doc.Filename).
				Warn("failed to archive upload")
		} else {
			objectKey = archived
		}
	}

	if s.registry != nil {
		record := &models.Document{
			ID:        id,
			Filename:  doc.Filename,
			MediaType: doc.MediaType,
			SizeBytes: int64(len(doc.Data)),
			ObjectKey: objectKey,
			Status:    models.DocumentStatusPending,
		}
		if err := s.registry.Create(ctx, record); err != nil {
			s.log.WithError(err).WithField("filename", doc.Filename).
				Warn("failed to register upload")
		}
	}
}

func (s *Service) recordOutcome(ctx context.Context, report UploadReport) {
	if s.registry != nil {
		var err error
		if report.Status == models.DocumentStatusIngested {
			err = s.registry.MarkIngested(ctx, report.ID, report.Chunks)
		} else {
			err = s.registry.MarkFailed(ctx, report.ID, errors.New(report.Error))
		}
		if err != nil {
			s.log.WithError(err).WithField("document_id", report.ID).
				Warn("failed to update registry")
		}
	}

	if s.events != nil {
		event := kafka.IngestionEvent{
			DocumentID: report.ID,
			Filename:   report.Filename,
			Status:     report.Status,
			Chunks:     report.Chunks,
			Error:      report.Error,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.WithError(err).WithField("document_id", report.ID).
				Warn("failed to publish ingestion event")
		}
	}
}

// Query returns the stored fragments most similar to the query text.
func (s *Service) Query(ctx context.Context, query string, opts pipeline.QueryOptions) ([]schema.RetrievalResult, error) {
	return s.retrieval.Run(ctx, query, opts)
}

// Chat answers a question over the ingested corpus. Retrieval runs behind
// the circuit breaker when one is configured: if the retrieval path is down
// or finds nothing, the model still answers, explicitly without context.
func (s *Service) Chat(ctx context.Context, question string) (*ChatResponse, error) {
	fragments, err := s.retrieve(ctx, question)
	if err != nil {
		s.log.WithError(err).Warn("retrieval unavailable, answering without context")
		fragments = nil
	}

	answer, err := s.qa.Answer(ctx, question, fragments)
	if err != nil {
		return nil, err
	}

	return &ChatResponse{
		Answer:      answer,
		Sources:     fragments,
		ContextUsed: len(fragments) > 0,
	}, nil
}

func (s *Service) retrieve(ctx context.Context, question string) ([]schema.RetrievalResult, error) {
	if s.breaker == nil {
		return s.retrieval.Run(ctx, question, pipeline.QueryOptions{})
	}

	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.retrieval.Run(ctx, question, pipeline.QueryOptions{})
	})
	if err != nil {
		return nil, err
	}
	return res.([]schema.RetrievalResult), nil
}

// ListDocuments returns the registry contents, newest first. Without a
// registry it returns an empty list.
func (s *Service) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	if s.registry == nil {
		return []*models.Document{}, nil
	}
	return s.registry.List(ctx)
}
