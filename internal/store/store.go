// Package store persists the gallery document.
//
// The whole document is read and written in one piece. Update serializes
// read-modify-write cycles so concurrent requests cannot lose each other's
// writes.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pmxy/gallery/internal/models"
)

// DocumentStore loads and saves the gallery document.
type DocumentStore interface {
	// Load returns the current document. A missing document is initialized
	// empty and persisted.
	Load(ctx context.Context) (*models.Document, error)
	// Save replaces the persisted document.
	Save(ctx context.Context, doc *models.Document) error
	// Update loads the document, applies fn and saves the result. Nothing is
	// written when fn returns an error.
	Update(ctx context.Context, fn func(doc *models.Document) error) error
}

func decode(data []byte) (*models.Document, error) {
	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func encode(doc *models.Document) ([]byte, error) {
	doc.Normalize()
	return json.MarshalIndent(doc, "", "  ")
}
