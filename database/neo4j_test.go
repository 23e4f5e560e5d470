package database

import (
	"context"
	"os"
	"testing"

	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNeo4jGraphHandler(t *testing.T) {
	t.Run("Valid call NewNeo4jGraphHandler", func(t *testing.T) {
		handler, err := NewNeo4jGraphHandler(&helper.Neo4jConfiguration{URI: "neo4j://localhost:7687", Username: "neo4j", Password: "password"})
		assert.NoError(t, err, "Expected NewNeo4jGraphHandler to not return an error")
		require.NotNil(t, handler)
		assert.Equal(t, "neo4j", handler.database, "Expected database to default to neo4j")
		handler.Close(context.Background())
	})

	t.Run("Invalid call NewNeo4jGraphHandler with nil configuration", func(t *testing.T) {
		_, err := NewNeo4jGraphHandler(nil)
		assert.Error(t, err)
	})

	t.Run("Invalid call NewNeo4jGraphHandler with bad scheme", func(t *testing.T) {
		_, err := NewNeo4jGraphHandler(&helper.Neo4jConfiguration{URI: "ftp://localhost"})
		assert.Error(t, err)
	})
}

func TestNeo4jProperties(t *testing.T) {
	props := neo4jProperties(model.Metadata{
		"title":  "doc",
		"nested": map[string]any{"a": 1},
		"id":     99,
	}, 5)

	assert.Equal(t, "doc", props["title"])
	assert.Equal(t, `{"a":1}`, props["nested"], "Expected nested maps to be stored as JSON text")
	assert.Equal(t, int64(5), props["id"], "Expected id to win over props")
}

func TestNeo4jGraphHandlerValidation(t *testing.T) {
	handler, err := NewNeo4jGraphHandler(&helper.Neo4jConfiguration{URI: "neo4j://localhost:7687"})
	require.NoError(t, err)
	defer handler.Close(context.Background())

	ctx := context.Background()

	t.Run("Empty label ids skip the query", func(t *testing.T) {
		rows, err := handler.SelectDocIDRows(ctx, model.DefaultAssociationQuery(nil))
		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Empty seeds skip the query", func(t *testing.T) {
		rows, err := handler.SelectExpandRows(ctx, model.DefaultExpandQuery(nil))
		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("Invalid label is rejected before the query", func(t *testing.T) {
		err := handler.UpsertVertex(ctx, "Doc Label", 1, nil)
		assert.ErrorIs(t, err, helper.ErrInvalidIdentifier)
	})
}

// TestNeo4jGraphHandlerIntegration runs against NEO4J_URI when it is set.
func TestNeo4jGraphHandlerIntegration(t *testing.T) {
	if os.Getenv("NEO4J_URI") == "" {
		t.Skip("NEO4J_URI not set")
	}

	config, err := helper.NewNeo4jConfiguration()
	require.NoError(t, err)
	handler, err := NewNeo4jGraphHandler(config)
	require.NoError(t, err)
	defer handler.Close(context.Background())

	ctx := context.Background()
	require.NoError(t, handler.VerifyConnectivity(ctx))

	for _, id := range []int64{901, 902, 903} {
		require.NoError(t, handler.UpsertVertex(ctx, model.VertexLabelLabel, id, model.Metadata{"slug": "it"}))
		defer handler.DeleteVertex(ctx, model.VertexLabelLabel, id)
	}
	require.NoError(t, handler.MergeEdge(ctx, model.VertexLabelLabel, 901, model.EdgeTypeParentOf, model.VertexLabelLabel, 902))
	require.NoError(t, handler.MergeEdge(ctx, model.VertexLabelLabel, 902, model.EdgeTypeParentOf, model.VertexLabelLabel, 903))

	ids, err := graph.GraphDescendantLabelIDs(ctx, handler, model.DefaultTraversalQuery(901), false)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []int64{902, 903}, ids)
}
