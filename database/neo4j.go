package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// Neo4jGraphHandler answers the graph queries of the search engine from Neo4j.
type Neo4jGraphHandler struct {
	client   neo4j.DriverWithContext
	database string
}

var _ graph.Store = (*Neo4jGraphHandler)(nil)

// NewNeo4jGraphHandler creates a driver for config. It does not connect until the first query.
func NewNeo4jGraphHandler(config *helper.Neo4jConfiguration) (*Neo4jGraphHandler, error) {
	if config == nil {
		return nil, helper.NewError("neo4j configuration", fmt.Errorf("configuration is nil"))
	}
	if config.URI == "" {
		return nil, helper.NewError("neo4j configuration", fmt.Errorf("uri is empty"))
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, helper.NewError("create neo4j driver", err)
	}

	database := config.Database
	if database == "" {
		database = "neo4j"
	}

	return &Neo4jGraphHandler{
		client:   driver,
		database: database,
	}, nil
}

// VerifyConnectivity checks that the server is reachable.
func (n *Neo4jGraphHandler) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Close closes the driver.
func (n *Neo4jGraphHandler) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// read runs a single column query and returns the value of every record.
func (n *Neo4jGraphHandler) read(ctx context.Context, query string, params map[string]any) ([]any, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}

		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]any, 0, len(records))
		for _, record := range records {
			if len(record.Values) == 0 {
				rows = append(rows, nil)
				continue
			}
			rows = append(rows, record.Values[0])
		}
		return rows, nil
	})
	if err != nil {
		return nil, helper.NewError("neo4j read", err)
	}

	return result.([]any), nil
}

func (n *Neo4jGraphHandler) write(ctx context.Context, query string, params map[string]any) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	if err != nil {
		return helper.NewError("neo4j write", err)
	}
	return nil
}

// SelectEdgeRows returns [source, target] rows between vertices of query.Label.
func (n *Neo4jGraphHandler) SelectEdgeRows(ctx context.Context, query model.EdgeQuery) ([]model.EdgeRow, error) {
	cypher, err := edgeRowsCypher(query)
	if err != nil {
		return nil, helper.NewError("edge query", err)
	}
	return n.read(ctx, cypher, nil)
}

// SelectTraversalRows returns the ids reachable from query.RootID.
func (n *Neo4jGraphHandler) SelectTraversalRows(ctx context.Context, query model.TraversalQuery) ([]any, error) {
	cypher, err := traversalCypher(query)
	if err != nil {
		return nil, helper.NewError("traversal query", err)
	}
	return n.read(ctx, cypher, map[string]any{"root": query.RootID})
}

// SelectDocIDRows returns the ids of documents linked to any of query.LabelIDs.
func (n *Neo4jGraphHandler) SelectDocIDRows(ctx context.Context, query model.AssociationQuery) ([]any, error) {
	if len(query.LabelIDs) == 0 {
		return []any{}, nil
	}

	cypher, err := associationCypher(query)
	if err != nil {
		return nil, helper.NewError("association query", err)
	}
	return n.read(ctx, cypher, map[string]any{"ids": query.LabelIDs})
}

// SelectExpandRows returns the ids reachable from query.SeedIDs.
func (n *Neo4jGraphHandler) SelectExpandRows(ctx context.Context, query model.ExpandQuery) ([]any, error) {
	if len(query.SeedIDs) == 0 {
		return []any{}, nil
	}

	cypher, err := expandCypher(query)
	if err != nil {
		return nil, helper.NewError("expand query", err)
	}
	return n.read(ctx, cypher, map[string]any{"ids": query.SeedIDs})
}

// Neighbors returns the direct neighbours of a vertex.
func (n *Neo4jGraphHandler) Neighbors(ctx context.Context, label string, id int64, edgeType string, direction model.Direction) ([]int64, error) {
	cypher, err := neighborsCypher(label, edgeType, direction)
	if err != nil {
		return nil, helper.NewError("neighbors query", err)
	}

	rows, err := n.read(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return model.CoerceIDs(rows), nil
}

// UpsertVertex creates the vertex or merges props into it.
func (n *Neo4jGraphHandler) UpsertVertex(ctx context.Context, label string, id int64, props model.Metadata) error {
	cypher, err := upsertVertexCypher(label)
	if err != nil {
		return helper.NewError("upsert vertex", err)
	}

	return n.write(ctx, cypher, map[string]any{"id": id, "props": neo4jProperties(props, id)})
}

// DeleteVertex removes the vertex and its edges.
func (n *Neo4jGraphHandler) DeleteVertex(ctx context.Context, label string, id int64) error {
	cypher, err := deleteVertexCypher(label)
	if err != nil {
		return helper.NewError("delete vertex", err)
	}

	return n.write(ctx, cypher, map[string]any{"id": id})
}

// MergeEdge creates a directed edge between two existing vertices unless it exists.
func (n *Neo4jGraphHandler) MergeEdge(ctx context.Context, fromLabel string, fromID int64, edgeType string, toLabel string, toID int64) error {
	cypher, err := mergeEdgeCypher(fromLabel, edgeType, toLabel)
	if err != nil {
		return helper.NewError("merge edge", err)
	}

	return n.write(ctx, cypher, map[string]any{"src_id": fromID, "tgt_id": toID})
}

// neo4jProperties keeps the values Neo4j can store as properties.
// Nested maps are not allowed there and are stored as their JSON text.
func neo4jProperties(props model.Metadata, id int64) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		switch t := v.(type) {
		case map[string]any, model.Metadata:
			encoded, err := json.Marshal(t)
			if err == nil {
				out[k] = string(encoded)
			}
		default:
			out[k] = v
		}
	}
	out["id"] = id
	return out
}
