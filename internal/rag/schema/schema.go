package schema

// EmbeddingRecord is the persisted unit of knowledge: a chunk of text plus its
// vector representation. Records are append-only; the vector store assigns a
// monotonic integer id at write time, which is storage bookkeeping only and
// never leaks into business logic.
type EmbeddingRecord struct {
	Content   string
	Embedding []float32
}

// RetrievalResult is one ranked fragment returned by a similarity query.
// Similarity is cosine similarity in [-1, 1]; results are produced fresh per
// query and ordered descending.
type RetrievalResult struct {
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// UploadedDocument is a document handed to ingestion: raw bytes plus the
// declared media type. It is transient and owned by the upload that carried it.
type UploadedDocument struct {
	Filename  string
	MediaType string
	Data      []byte
}

// IngestResult reports the outcome of one document's ingestion pipeline.
// A failed sibling never aborts the rest of the batch, so callers always get
// one result per uploaded document.
type IngestResult struct {
	Filename string
	Chunks   int
	Err      error
}
