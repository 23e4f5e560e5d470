package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
	loadSql "github.com/siherrmann/agesearch/sql"
)

// DocsDBHandlerFunctions defines the interface for Docs database operations.
type DocsDBHandlerFunctions interface {
	InsertDocument(ctx context.Context, doc *model.Document) error
	UpdateDocumentEmbedding(ctx context.Context, id int64, embedding []float32) error
	DeleteDocument(ctx context.Context, id int64) error
	SelectDocumentsByIDs(ctx context.Context, ids []int64) ([]*model.Document, error)
	SelectAllDocuments(ctx context.Context, lastID *int64, limit int) ([]*model.Document, error)
	SelectDocIDsByFTS(ctx context.Context, text string, k int) ([]int64, error)
	SelectDocsByBM25(ctx context.Context, text string, k int) ([]model.LexicalHit, error)
	SelectDocsByVector(ctx context.Context, embedding []float32, k int, distance model.Distance) ([]model.SemanticHit, error)
}

// DocsDBHandler handles document-related database operations
type DocsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewDocsDBHandler creates a new docs database handler.
// It loads the docs SQL functions and creates the docs table with an embedding column of embeddingDim.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocsDBHandler(db *helper.Database, embeddingDim int, force bool) (*DocsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	docsDbHandler := &DocsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadDocsSql(docsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load docs sql", err)
	}

	err = docsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocsDBHandler")

	return docsDbHandler, nil
}

// CreateTable creates the 'docs' table with its full text index.
// If the table already exists, it does not create it again.
func (h *DocsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_docs($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init docs", err)
	}

	h.db.Logger.Info("Checked/created table docs")

	return nil
}

func (h *DocsDBHandler) vector(embedding []float32) (any, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	if len(embedding) != h.embeddingDim {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), h.embeddingDim)
	}
	v := pgvector.NewVector(embedding)
	return v, nil
}

// InsertDocument inserts a new document. An empty embedding is stored as NULL.
func (h *DocsDBHandler) InsertDocument(ctx context.Context, doc *model.Document) error {
	embedding, err := h.vector(doc.Embedding)
	if err != nil {
		return helper.NewError("embedding validation", err)
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_doc($1, $2, $3, $4)`,
		doc.Title,
		doc.Content,
		doc.Metadata,
		embedding,
	)

	err = row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Content,
		&doc.Metadata,
		&doc.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdateDocumentEmbedding replaces the embedding of a document
func (h *DocsDBHandler) UpdateDocumentEmbedding(ctx context.Context, id int64, embedding []float32) error {
	v, err := h.vector(embedding)
	if err != nil {
		return helper.NewError("embedding validation", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, `SELECT update_doc_embedding($1, $2)`, id, v)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteDocument deletes a document by id. Its label links are removed with it.
func (h *DocsDBHandler) DeleteDocument(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_doc($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectDocumentsByIDs fetches documents in ascending id order. Unknown ids are skipped.
func (h *DocsDBHandler) SelectDocumentsByIDs(ctx context.Context, ids []int64) ([]*model.Document, error) {
	if len(ids) == 0 {
		return []*model.Document{}, nil
	}

	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_docs_by_ids($1)`, pq.Array(ids))
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Content,
			&doc.Metadata,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SelectAllDocuments pages through documents by id. A nil lastID starts at the beginning.
func (h *DocsDBHandler) SelectAllDocuments(ctx context.Context, lastID *int64, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_docs($1, $2)`, lastID, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Content,
			&doc.Metadata,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// SelectDocIDsByFTS ranks documents with Postgres full text search
func (h *DocsDBHandler) SelectDocIDsByFTS(ctx context.Context, text string, k int) ([]int64, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT id FROM search_docs_fts($1, $2)`, text, k)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

// SelectDocsByBM25 ranks documents with pg_search. It requires the pg_search extension and the bm25 index.
func (h *DocsDBHandler) SelectDocsByBM25(ctx context.Context, text string, k int) ([]model.LexicalHit, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT id, score, snippet FROM search_docs_bm25($1, $2)`, text, k)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	hits := []model.LexicalHit{}
	for rows.Next() {
		hit := model.LexicalHit{}
		if err := rows.Scan(&hit.ID, &hit.Score, &hit.Snippet); err != nil {
			return nil, helper.NewError("scan", err)
		}
		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// SelectDocsByVector ranks documents with an embedding by distance to embedding
func (h *DocsDBHandler) SelectDocsByVector(ctx context.Context, embedding []float32, k int, distance model.Distance) ([]model.SemanticHit, error) {
	if !distance.Valid() {
		return nil, helper.NewError("distance validation", fmt.Errorf("unsupported distance: %q", distance))
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT id, distance FROM search_docs_by_vector($1, $2, $3)`,
		pgvector.NewVector(embedding),
		k,
		string(distance),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	hits := []model.SemanticHit{}
	for rows.Next() {
		hit := model.SemanticHit{}
		if err := rows.Scan(&hit.ID, &hit.Distance); err != nil {
			return nil, helper.NewError("scan", err)
		}
		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}
