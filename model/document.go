package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document is a retrievable record. The relational id doubles as the graph vertex id.
type Document struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Embedding []float32 `json:"-"` // write only, never hydrated
	CreatedAt time.Time `json:"created_at"`
}

// NewDocumentFromFile reads a file into a Document.
// The title defaults to the filename without extension and the path is kept in Metadata["source"].
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	if metadata == nil {
		metadata = Metadata{}
	}
	metadata["source"] = filePath

	return &Document{
		Title:    title,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}
