package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Ingestion event statuses.
const (
	StatusIngested = "ingested"
	StatusFailed   = "failed"
)

// IngestionEvent records the outcome of processing one uploaded document.
type IngestionEvent struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Chunks     int       `json:"chunks"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusPublisher writes ingestion events to the status topic. Publishing is
// best-effort from the caller's point of view: a failed publish is logged and
// must not fail the ingestion that triggered it.
type StatusPublisher struct {
	client *Client
}

// NewStatusPublisher wraps a connected Client.
func NewStatusPublisher(client *Client) *StatusPublisher {
	return &StatusPublisher{client: client}
}

// Publish sends one event, keyed by document id so events for the same
// document stay ordered within a partition.
func (p *StatusPublisher) Publish(ctx context.Context, event IngestionEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ingestion event: %w", err)
	}

	err = p.client.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish ingestion event: %w", err)
	}
	return nil
}
