// Package models holds the persistent data models shared across services.
package models

import "time"

// Document registry statuses.
const (
	DocumentStatusPending  = "pending"
	DocumentStatusIngested = "ingested"
	DocumentStatusFailed   = "failed"
)

// Document is one registry row per uploaded document: what was uploaded,
// where its raw bytes are archived, and how ingestion went. The vector store
// holds the searchable content; this table holds the audit trail.
type Document struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Filename  string    `gorm:"size:512;not null" json:"filename"`
	MediaType string    `gorm:"size:128" json:"media_type"`
	SizeBytes int64     `json:"size_bytes"`
	ObjectKey string    `gorm:"size:512" json:"object_key,omitempty"`
	Chunks    int       `json:"chunks"`
	Status    string    `gorm:"size:32;index" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
