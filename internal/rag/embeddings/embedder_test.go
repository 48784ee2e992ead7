package embeddings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"studypal/internal/embedding"
)

// fakeModel replays a scripted sequence of errors, then succeeds.
type fakeModel struct {
	dimension int
	failures  []error
	calls     int
	lastBatch []string
}

func (f *fakeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.lastBatch = texts
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dimension)
		vec[0] = float32(i + 1)
		vectors[i] = vec
	}
	return vectors, nil
}

func newTestEmbedder(model *fakeModel) *Embedder {
	return NewEmbedder(model, model.dimension, Options{
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	})
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	model := &fakeModel{dimension: 4}
	e := newTestEmbedder(model)

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != 4 {
			t.Errorf("vector %d has dimension %d, want 4", i, len(vec))
		}
		if vec[0] != float32(i+1) {
			t.Errorf("vector %d out of order: marker = %v", i, vec[0])
		}
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	model := &fakeModel{dimension: 4}
	e := newTestEmbedder(model)

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected empty result, got %v", vectors)
	}
	if model.calls != 0 {
		t.Errorf("provider should not be called for an empty batch, got %d calls", model.calls)
	}
}

func TestEmbedBlankTextRejected(t *testing.T) {
	model := &fakeModel{dimension: 4}
	e := newTestEmbedder(model)

	_, err := e.EmbedBatch(context.Background(), []string{"fine", "  \n "})
	if !errors.Is(err, embedding.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if model.calls != 0 {
		t.Errorf("provider should not be called, got %d calls", model.calls)
	}
}

func TestEmbedNormalizesNewlines(t *testing.T) {
	model := &fakeModel{dimension: 4}
	e := newTestEmbedder(model)

	if _, err := e.Embed(context.Background(), "line one\nline two\n"); err != nil {
		t.Fatal(err)
	}
	if got := model.lastBatch[0]; got != "line one line two" {
		t.Errorf("normalized text = %q, want %q", got, "line one line two")
	}
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	model := &fakeModel{
		dimension: 4,
		failures:  []error{embedding.ErrRateLimited, embedding.ErrRemoteUnavailable},
	}
	e := newTestEmbedder(model)

	if _, err := e.Embed(context.Background(), "retry me"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
}

func TestEmbedGivesUpAfterMaxAttempts(t *testing.T) {
	model := &fakeModel{
		dimension: 4,
		failures: []error{
			embedding.ErrRemoteUnavailable,
			embedding.ErrRemoteUnavailable,
			embedding.ErrRemoteUnavailable,
		},
	}
	e := newTestEmbedder(model)

	_, err := e.Embed(context.Background(), "doomed")
	if !errors.Is(err, embedding.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
}

func TestEmbedDoesNotRetryInvalidInput(t *testing.T) {
	model := &fakeModel{
		dimension: 4,
		failures:  []error{fmt.Errorf("%w: bad request", embedding.ErrInvalidInput)},
	}
	e := newTestEmbedder(model)

	_, err := e.Embed(context.Background(), "rejected upstream")
	if !errors.Is(err, embedding.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if model.calls != 1 {
		t.Errorf("non-retryable error should stop after 1 call, got %d", model.calls)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	model := &fakeModel{dimension: 4}
	e := NewEmbedder(model, 768, Options{MaxAttempts: 1})

	if _, err := e.Embed(context.Background(), "short vector"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
