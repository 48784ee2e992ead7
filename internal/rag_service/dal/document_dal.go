// Package dal provides data access for the document registry.
package dal

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studypal/internal/models"
)

// DocumentDAL persists the document registry.
type DocumentDAL struct {
	db *gorm.DB
}

// NewDocumentDAL creates a DocumentDAL and migrates the table.
func NewDocumentDAL(db *gorm.DB) (*DocumentDAL, error) {
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &DocumentDAL{db: db}, nil
}

// Create inserts a registry row for an upload.
func (d *DocumentDAL) Create(ctx context.Context, doc *models.Document) error {
	if result := d.db.WithContext(ctx).Create(doc); result.Error != nil {
		return fmt.Errorf("create document record: %w", result.Error)
	}
	return nil
}

// MarkIngested records a successful ingestion and its chunk count.
func (d *DocumentDAL) MarkIngested(ctx context.Context, id string, chunks int) error {
	result := d.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.DocumentStatusIngested,
			"chunks": chunks,
			"error":  "",
		})
	if result.Error != nil {
		return fmt.Errorf("mark document ingested: %w", result.Error)
	}
	return nil
}

// MarkFailed records an ingestion failure.
func (d *DocumentDAL) MarkFailed(ctx context.Context, id string, cause error) error {
	result := d.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.DocumentStatusFailed,
			"error":  cause.Error(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark document failed: %w", result.Error)
	}
	return nil
}

// List returns all registry rows, newest first.
func (d *DocumentDAL) List(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&docs)
	if result.Error != nil {
		return nil, fmt.Errorf("list documents: %w", result.Error)
	}
	return docs, nil
}
