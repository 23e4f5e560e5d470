package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// Index types accepted by ChangeIndexType.
const (
	IndexTypeHNSW    = "hnsw"
	IndexTypeIVFFlat = "ivfflat"
)

// operatorClass maps a distance to the pgvector operator class its index needs.
func operatorClass(distance model.Distance) (string, error) {
	switch distance {
	case model.DistanceCosine, "":
		return "vector_cosine_ops", nil
	case model.DistanceL2:
		return "vector_l2_ops", nil
	case model.DistanceInnerProduct:
		return "vector_ip_ops", nil
	}
	return "", fmt.Errorf("unsupported distance: %q", distance)
}

// ChangeIndexType replaces the vector index on docs.embedding.
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *DocsDBHandler) ChangeIndexType(ctx context.Context, indexType string, distance model.Distance, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	opClass, err := operatorClass(distance)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	var createIndexSQL string

	switch indexType {
	case IndexTypeHNSW:
		m := 16
		efConstruction := 64

		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_docs_embedding ON docs USING hnsw (embedding %s) WITH (m = %d, ef_construction = %d);`,
			opClass, m, efConstruction,
		)

	case IndexTypeIVFFlat:
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_docs_embedding ON docs USING ivfflat (embedding %s) WITH (lists = %d);`,
			opClass, lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	_, err = h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_docs_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, `ANALYZE docs;`)
	if err != nil {
		return helper.NewError("analyze", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index (%s) with params: %v", indexType, opClass, params))

	return nil
}

// CreateBM25Index creates the pg_search index used by SelectDocsByBM25.
// The pg_search extension must be installed.
func (h *DocsDBHandler) CreateBM25Index(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(
		ctx,
		`CREATE INDEX IF NOT EXISTS idx_docs_bm25 ON docs USING bm25 (id, title, content) WITH (key_field = 'id');`,
	)
	if err != nil {
		return helper.NewError("create bm25 index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, `ANALYZE docs;`)
	if err != nil {
		return helper.NewError("analyze", err)
	}

	h.db.Logger.Info("Created bm25 index on docs")

	return nil
}
