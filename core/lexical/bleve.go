// Package lexical provides an in-process scoring lexical source on top of Bleve.
package lexical

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/siherrmann/agesearch/model"
)

const snippetField = "content"

// indexedDocument is the shape stored in the index.
type indexedDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BleveIndex implements retrieval.ScoringLexicalSource with a Bleve index.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	return im
}

// NewBleveIndex creates or opens a Bleve index at path.
// An empty path creates an in-memory index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexDocument adds or replaces a document.
func (b *BleveIndex) IndexDocument(ctx context.Context, doc *model.Document) error {
	return b.index.Index(docKey(doc.ID), indexedDocument{Title: doc.Title, Content: doc.Content})
}

// IndexDocuments adds or replaces documents in one batch.
func (b *BleveIndex) IndexDocuments(ctx context.Context, docs []*model.Document) error {
	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(docKey(doc.ID), indexedDocument{Title: doc.Title, Content: doc.Content}); err != nil {
			return fmt.Errorf("failed to batch document %d: %w", doc.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// DeleteDocument removes a document from the index.
func (b *BleveIndex) DeleteDocument(ctx context.Context, id int64) error {
	return b.index.Delete(docKey(id))
}

// SelectDocsByBM25 runs a match query over title and content and returns up to k hits
// with their score and the first highlighted content fragment.
func (b *BleveIndex) SelectDocsByBM25(ctx context.Context, text string, k int) ([]model.LexicalHit, error) {
	if k <= 0 {
		return []model.LexicalHit{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(text))
	req.Size = k
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Fields = []string{snippetField}

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	hits := make([]model.LexicalHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		score := hit.Score
		lexicalHit := model.LexicalHit{ID: id, Score: &score}
		if fragments := hit.Fragments[snippetField]; len(fragments) > 0 {
			snippet := fragments[0]
			lexicalHit.Snippet = &snippet
		}
		hits = append(hits, lexicalHit)
	}
	return hits, nil
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func docKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
