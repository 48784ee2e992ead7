package pipeline

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"studypal/internal/config"
	"studypal/internal/extract"
	"studypal/internal/index"
	"studypal/internal/rag/schema"
	"studypal/internal/rag/splitters"
	"studypal/internal/rag/storages/vectorstore"
)

const testDimension = 16

// wordHashEmbedder is a deterministic stand-in for a real embedding model:
// each word bumps one vector component, so texts sharing words land close in
// cosine space.
type wordHashEmbedder struct{}

func (wordHashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, testDimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!")
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%testDimension]++
	}
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(float64(norm)))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (e wordHashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func newTestPipelines() (*Ingestion, *Retrieval) {
	store := vectorstore.NewMemoryStore(index.NewBruteForce(), testDimension)
	embedder := wordHashEmbedder{}
	ingestion := NewIngestion(
		extract.NewService(),
		splitters.NewRecursiveCharacterSplitter(100, 0),
		embedder,
		store,
	)
	retrieval := NewRetrieval(embedder, store, config.RetrievalConfig{
		Threshold: 0.1,
		TopK:      4,
	}, nil)
	return ingestion, retrieval
}

func TestIngestThenRetrieve(t *testing.T) {
	ctx := context.Background()
	ingestion, retrieval := newTestPipelines()

	doc := schema.UploadedDocument{
		Filename:  "notes.txt",
		MediaType: "text/plain",
		Data: []byte("Paris is the capital of France.\n\n" +
			"The mitochondria is the powerhouse of the cell.\n\n" +
			"Water boils at one hundred degrees Celsius."),
	}

	chunks, err := ingestion.Ingest(ctx, doc)
	if err != nil {
		t.Fatal(err)
	}
	if chunks == 0 {
		t.Fatal("expected at least one chunk")
	}

	results, err := retrieval.Run(ctx, "What is the capital of France?", QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if !strings.Contains(results[0].Content, "Paris") {
		t.Errorf("top result should mention Paris, got %q", results[0].Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Similarity < results[i].Similarity {
			t.Errorf("results not sorted by descending similarity: %v", results)
		}
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	ctx := context.Background()
	ingestion, _ := newTestPipelines()

	chunks, err := ingestion.Ingest(ctx, schema.UploadedDocument{
		Filename:  "empty.txt",
		MediaType: "text/plain",
		Data:      []byte("   \n\n  "),
	})
	if err != nil {
		t.Fatalf("empty document should ingest cleanly, got %v", err)
	}
	if chunks != 0 {
		t.Errorf("expected 0 chunks, got %d", chunks)
	}
}

func TestIngestAllIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	ingestion, retrieval := newTestPipelines()

	docs := []schema.UploadedDocument{
		{
			Filename:  "good.txt",
			MediaType: "text/plain",
			Data:      []byte("The Nile is the longest river in Africa."),
		},
		{
			Filename:  "bad.png",
			MediaType: "image/png",
			Data:      []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0},
		},
	}

	results := ingestion.IngestAll(ctx, docs)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Errorf("good.txt should succeed, got %v", results[0].Err)
	}
	if results[0].Chunks == 0 {
		t.Error("good.txt should produce chunks")
	}
	if results[1].Err == nil {
		t.Error("bad.png should fail")
	}

	// The failed document must not block the successful one from being
	// queryable.
	hits, err := retrieval.Run(ctx, "longest river in Africa", QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Error("expected the successfully ingested document to be retrievable")
	}
}

func TestRetrieveNothingAboveThreshold(t *testing.T) {
	ctx := context.Background()
	ingestion, retrieval := newTestPipelines()

	_, err := ingestion.Ingest(ctx, schema.UploadedDocument{
		Filename:  "notes.txt",
		MediaType: "text/plain",
		Data:      []byte("Completely unrelated subject matter here."),
	})
	if err != nil {
		t.Fatal(err)
	}

	high := float32(0.99)
	results, err := retrieval.Run(ctx, "quantum chromodynamics", QueryOptions{Threshold: &high})
	if err != nil {
		t.Fatalf("no matches is not an error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results above threshold, got %v", results)
	}
}

func TestRetrieveBlankQuery(t *testing.T) {
	_, retrieval := newTestPipelines()

	if _, err := retrieval.Run(context.Background(), "  \n ", QueryOptions{}); err == nil {
		t.Error("blank query should be rejected")
	}
}

func TestRetrieveTopKOverride(t *testing.T) {
	ctx := context.Background()
	ingestion, retrieval := newTestPipelines()

	_, err := ingestion.Ingest(ctx, schema.UploadedDocument{
		Filename:  "notes.txt",
		MediaType: "text/plain",
		Data: []byte("Cats sleep a lot.\n\n" +
			"Cats purr when content.\n\n" +
			"Cats hunt at night."),
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := retrieval.Run(ctx, "Why do cats sleep and purr at night?", QueryOptions{TopK: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) > 1 {
		t.Errorf("topK override not honored: got %d results", len(results))
	}
}

// capturingLLM records the prompt it was asked to complete.
type capturingLLM struct {
	prompt string
}

func (l *capturingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	l.prompt = prompt
	return "an answer", nil
}

func TestAnswerIncludesFragments(t *testing.T) {
	llm := &capturingLLM{}
	qa := NewQA(llm)

	fragments := []schema.RetrievalResult{
		{Content: "Paris is the capital of France.", Similarity: 0.9},
	}
	answer, err := qa.Answer(context.Background(), "What is the capital of France?", fragments)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "an answer" {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(llm.prompt, "Paris is the capital of France.") {
		t.Errorf("prompt should include retrieved fragment, got %q", llm.prompt)
	}
	if !strings.Contains(llm.prompt, "What is the capital of France?") {
		t.Errorf("prompt should include the question, got %q", llm.prompt)
	}
}

func TestAnswerWithoutContext(t *testing.T) {
	llm := &capturingLLM{}
	qa := NewQA(llm)

	if _, err := qa.Answer(context.Background(), "What is entropy?", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(llm.prompt, "general knowledge") {
		t.Errorf("no-context prompt should fall back to general knowledge, got %q", llm.prompt)
	}
}
