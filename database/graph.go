package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// GraphDBHandler runs cypher against an Apache AGE graph stored in PostgreSQL.
type GraphDBHandler struct {
	db         *helper.Database
	graphName  string
	searchPath string
}

var _ graph.Store = (*GraphDBHandler)(nil)

// NewGraphDBHandler creates a handler for the configured graph and creates the graph if it is missing.
// The age extension must be installed.
func NewGraphDBHandler(db *helper.Database, config model.GraphConfig) (*GraphDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := helper.ValidateIdentifier(config.GraphName)
	if err != nil {
		return nil, helper.NewError("graph name validation", err)
	}

	searchPath, err := helper.ValidateSearchPath(config.SearchPath)
	if err != nil {
		return nil, helper.NewError("search path validation", err)
	}

	graphDbHandler := &GraphDBHandler{
		db:         db,
		graphName:  config.GraphName,
		searchPath: searchPath,
	}

	err = graphDbHandler.CreateGraph()
	if err != nil {
		return nil, helper.NewError("create graph", err)
	}

	db.Logger.Info("Initialized GraphDBHandler", "graph", config.GraphName)

	return graphDbHandler, nil
}

// CreateGraph creates the graph unless it already exists.
func (h *GraphDBHandler) CreateGraph() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := h.inSession(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = '%s') THEN
					PERFORM ag_catalog.create_graph('%s');
				END IF;
			END
			$$;`,
			h.graphName, h.graphName,
		))
		return err
	})
	if err != nil {
		return helper.NewError("init graph", err)
	}

	h.db.Logger.Info("Checked/created graph", "graph", h.graphName)

	return nil
}

// inSession runs fn in a transaction that has AGE loaded and the configured search path set.
func (h *GraphDBHandler) inSession(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `LOAD 'age';`)
	if err != nil {
		return helper.NewError("load age", err)
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`SET LOCAL search_path = %s;`, h.searchPath))
	if err != nil {
		return helper.NewError("set search path", err)
	}

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Cypher executes a cypher query returning a single column and decodes every row.
// AGE requires the query text to be a constant, so it is dollar quoted and must not contain "$$".
// Parameters are passed as one agtype map and referenced as $name inside the query.
// Null rows are kept as nil.
func (h *GraphDBHandler) Cypher(ctx context.Context, cypher string, params map[string]any) ([]any, error) {
	if strings.Contains(cypher, "$$") {
		return nil, helper.NewError("cypher validation", fmt.Errorf("cypher must not contain $$"))
	}

	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, helper.NewError("marshal params", err)
	}

	// agtype renders scalars and lists as JSON text
	query := fmt.Sprintf(
		`SELECT row::text FROM ag_catalog.cypher('%s', $$ %s $$, $1) AS (row ag_catalog.agtype);`,
		h.graphName, cypher,
	)

	out := []any{}
	err = h.inSession(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, string(paramsJSON))
		if err != nil {
			return helper.NewError("query", err)
		}
		defer rows.Close()

		for rows.Next() {
			var raw sql.NullString
			if err := rows.Scan(&raw); err != nil {
				return helper.NewError("scan", err)
			}

			value, err := decodeAgtype(raw)
			if err != nil {
				return helper.NewError("decode agtype", err)
			}
			out = append(out, value)
		}

		err = rows.Err()
		if err != nil {
			return helper.NewError("rows error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func decodeAgtype(raw sql.NullString) (any, error) {
	if !raw.Valid || raw.String == "null" {
		return nil, nil
	}

	decoder := json.NewDecoder(strings.NewReader(raw.String))
	decoder.UseNumber()

	var value any
	err := decoder.Decode(&value)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SelectEdgeRows returns [source, target] rows between vertices of query.Label.
func (h *GraphDBHandler) SelectEdgeRows(ctx context.Context, query model.EdgeQuery) ([]model.EdgeRow, error) {
	cypher, err := edgeRowsCypher(query)
	if err != nil {
		return nil, helper.NewError("edge query", err)
	}
	return h.Cypher(ctx, cypher, nil)
}

// SelectTraversalRows returns the ids reachable from query.RootID.
func (h *GraphDBHandler) SelectTraversalRows(ctx context.Context, query model.TraversalQuery) ([]any, error) {
	cypher, err := traversalCypher(query)
	if err != nil {
		return nil, helper.NewError("traversal query", err)
	}
	return h.Cypher(ctx, cypher, map[string]any{"root": query.RootID})
}

// SelectDocIDRows returns the ids of documents linked to any of query.LabelIDs.
func (h *GraphDBHandler) SelectDocIDRows(ctx context.Context, query model.AssociationQuery) ([]any, error) {
	if len(query.LabelIDs) == 0 {
		return []any{}, nil
	}

	cypher, err := associationCypher(query)
	if err != nil {
		return nil, helper.NewError("association query", err)
	}
	return h.Cypher(ctx, cypher, map[string]any{"ids": query.LabelIDs})
}

// SelectExpandRows returns the ids reachable from query.SeedIDs.
func (h *GraphDBHandler) SelectExpandRows(ctx context.Context, query model.ExpandQuery) ([]any, error) {
	if len(query.SeedIDs) == 0 {
		return []any{}, nil
	}

	cypher, err := expandCypher(query)
	if err != nil {
		return nil, helper.NewError("expand query", err)
	}
	return h.Cypher(ctx, cypher, map[string]any{"ids": query.SeedIDs})
}

// Neighbors returns the direct neighbours of a vertex.
func (h *GraphDBHandler) Neighbors(ctx context.Context, label string, id int64, edgeType string, direction model.Direction) ([]int64, error) {
	cypher, err := neighborsCypher(label, edgeType, direction)
	if err != nil {
		return nil, helper.NewError("neighbors query", err)
	}

	rows, err := h.Cypher(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return model.CoerceIDs(rows), nil
}

// UpsertVertex creates the vertex or merges props into it.
func (h *GraphDBHandler) UpsertVertex(ctx context.Context, label string, id int64, props model.Metadata) error {
	cypher, err := upsertVertexCypher(label)
	if err != nil {
		return helper.NewError("upsert vertex", err)
	}

	merged := model.Metadata{}
	for k, v := range props {
		merged[k] = v
	}
	merged["id"] = id

	_, err = h.Cypher(ctx, cypher, map[string]any{"id": id, "props": merged})
	return err
}

// DeleteVertex removes the vertex and its edges.
func (h *GraphDBHandler) DeleteVertex(ctx context.Context, label string, id int64) error {
	cypher, err := deleteVertexCypher(label)
	if err != nil {
		return helper.NewError("delete vertex", err)
	}

	_, err = h.Cypher(ctx, cypher, map[string]any{"id": id})
	return err
}

// MergeEdge creates a directed edge between two existing vertices unless it exists.
func (h *GraphDBHandler) MergeEdge(ctx context.Context, fromLabel string, fromID int64, edgeType string, toLabel string, toID int64) error {
	cypher, err := mergeEdgeCypher(fromLabel, edgeType, toLabel)
	if err != nil {
		return helper.NewError("merge edge", err)
	}

	_, err = h.Cypher(ctx, cypher, map[string]any{"src_id": fromID, "tgt_id": toID})
	return err
}
