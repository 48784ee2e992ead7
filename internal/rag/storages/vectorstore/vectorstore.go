// Package vectorstore provides the persistence layer for embedding records:
// an in-process store backed by a vector index, and a Milvus-backed store for
// deployments that need the corpus to survive restarts.
package vectorstore

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's dimension differs from
	// the store's configured dimension. The offending call has no effect.
	ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")

	// ErrStorageUnavailable is returned when the backing store cannot be
	// reached or rejects the operation for infrastructure reasons.
	ErrStorageUnavailable = errors.New("vectorstore: storage unavailable")
)
