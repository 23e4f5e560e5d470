package graph

import (
	"context"
	"sync"
	"testing"

	"github.com/siherrmann/agesearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLabelGraph(t *testing.T) *MemoryGraph {
	t.Helper()
	ctx := context.Background()
	g := NewMemoryGraph()

	// labels 1 -> 2 -> 3, 1 -> 4
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelLabel, 1, model.EdgeTypeParentOf, model.VertexLabelLabel, 2))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelLabel, 2, model.EdgeTypeParentOf, model.VertexLabelLabel, 3))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelLabel, 1, model.EdgeTypeParentOf, model.VertexLabelLabel, 4))

	// docs 10..13 tagged with labels
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 10, model.EdgeTypeHasLabel, model.VertexLabelLabel, 2))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 11, model.EdgeTypeHasLabel, model.VertexLabelLabel, 3))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 12, model.EdgeTypeHasLabel, model.VertexLabelLabel, 4))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 13, model.EdgeTypeHasLabel, model.VertexLabelLabel, 1))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 10, model.EdgeTypeHasLabel, model.VertexLabelLabel, 3))

	return g
}

func TestMemoryGraphVertices(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	t.Run("Upsert merges properties", func(t *testing.T) {
		require.NoError(t, g.UpsertVertex(ctx, model.VertexLabelDoc, 1, model.Metadata{"title": "a"}))
		require.NoError(t, g.UpsertVertex(ctx, model.VertexLabelDoc, 1, model.Metadata{"lang": "en"}))

		assert.Equal(t, []int64{1}, g.VertexIDs(model.VertexLabelDoc))
		assert.Equal(t, "a", g.vertices[vertexKey{model.VertexLabelDoc, 1}]["title"])
		assert.Equal(t, "en", g.vertices[vertexKey{model.VertexLabelDoc, 1}]["lang"])
	})

	t.Run("Same id under different labels stays distinct", func(t *testing.T) {
		require.NoError(t, g.UpsertVertex(ctx, model.VertexLabelLabel, 1, nil))

		assert.Equal(t, []int64{1}, g.VertexIDs(model.VertexLabelDoc))
		assert.Equal(t, []int64{1}, g.VertexIDs(model.VertexLabelLabel))
	})

	t.Run("Merge edge is idempotent", func(t *testing.T) {
		require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 1, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 2))
		require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 1, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 2))

		rows, err := g.SelectEdgeRows(ctx, model.EdgeQuery{Label: model.VertexLabelDoc, EdgeType: model.EdgeTypeRelatedTo, Direction: model.DirectionOut})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, []int64{1, 2}, g.VertexIDs(model.VertexLabelDoc), "Expected endpoint to be created")
	})

	t.Run("Delete vertex detaches edges", func(t *testing.T) {
		require.NoError(t, g.DeleteVertex(ctx, model.VertexLabelDoc, 2))

		rows, err := g.SelectEdgeRows(ctx, model.EdgeQuery{Label: model.VertexLabelDoc, EdgeType: model.EdgeTypeRelatedTo, Direction: model.DirectionOut})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, []int64{1}, g.VertexIDs(model.VertexLabelDoc))
	})
}

func TestMemoryGraphEdgeRows(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 1, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 2))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 2, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 3))

	query := model.DefaultEdgeQuery(model.VertexLabelDoc, model.EdgeTypeRelatedTo)

	t.Run("Out", func(t *testing.T) {
		query.Direction = model.DirectionOut
		rows, err := g.SelectEdgeRows(ctx, query)

		require.NoError(t, err)
		assert.Equal(t, []model.EdgeRow{[]any{int64(1), int64(2)}, []any{int64(2), int64(3)}}, rows)
	})

	t.Run("In", func(t *testing.T) {
		query.Direction = model.DirectionIn
		rows, err := g.SelectEdgeRows(ctx, query)

		require.NoError(t, err)
		assert.Equal(t, []model.EdgeRow{[]any{int64(2), int64(1)}, []any{int64(3), int64(2)}}, rows)
	})

	t.Run("Both", func(t *testing.T) {
		query.Direction = model.DirectionBoth
		rows, err := g.SelectEdgeRows(ctx, query)

		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("Row cap", func(t *testing.T) {
		query.Direction = model.DirectionBoth
		query.RowCap = 3
		rows, err := g.SelectEdgeRows(ctx, query)

		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("Other labels ignored", func(t *testing.T) {
		rows, err := g.SelectEdgeRows(ctx, model.DefaultEdgeQuery(model.VertexLabelLabel, model.EdgeTypeRelatedTo))

		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestMemoryGraphSubtree(t *testing.T) {
	ctx := context.Background()
	g := buildLabelGraph(t)

	t.Run("Descendant labels", func(t *testing.T) {
		ids, err := GraphDescendantLabelIDs(ctx, g, model.DefaultTraversalQuery(1), true)

		require.NoError(t, err)
		assert.Equal(t, []int64{2, 4, 3, 1}, ids)
	})

	t.Run("Missing root yields only itself when included", func(t *testing.T) {
		ids, err := GraphDescendantLabelIDs(ctx, g, model.DefaultTraversalQuery(99), true)

		require.NoError(t, err)
		assert.Equal(t, []int64{99}, ids)
	})

	t.Run("Docs in subtree", func(t *testing.T) {
		ids, err := GraphDocIDsInLabelSubtree(ctx, g, g, 2, model.DefaultSubtreeConfig())

		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{10, 11}, ids)
	})

	t.Run("Docs in subtree without root", func(t *testing.T) {
		cfg := model.DefaultSubtreeConfig()
		cfg.IncludeSelf = false

		ids, err := GraphDocIDsInLabelSubtree(ctx, g, g, 1, cfg)

		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{10, 11, 12}, ids, "Expected doc 13 tagged only with the root to be excluded")
	})

	t.Run("Hop limit", func(t *testing.T) {
		q := model.DefaultTraversalQuery(1)
		q.MaxHops = 1

		ids, err := GraphDescendantLabelIDs(ctx, g, q, false)

		require.NoError(t, err)
		assert.Equal(t, []int64{2, 4}, ids)
	})
}

func TestMemoryGraphExpand(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 1, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 2))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 2, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 3))
	require.NoError(t, g.MergeEdge(ctx, model.VertexLabelDoc, 5, model.EdgeTypeRelatedTo, model.VertexLabelDoc, 6))

	t.Run("One hop", func(t *testing.T) {
		ids, err := ExpandIDs(ctx, g, model.DefaultExpandQuery([]int64{1, 5}), false)

		require.NoError(t, err)
		assert.Equal(t, []int64{2, 6}, ids)
	})

	t.Run("Two hops with seeds", func(t *testing.T) {
		q := model.DefaultExpandQuery([]int64{1})
		q.Hops = 2

		ids, err := ExpandIDs(ctx, g, q, true)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("Unknown seed", func(t *testing.T) {
		ids, err := ExpandIDs(ctx, g, model.DefaultExpandQuery([]int64{42}), false)

		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestMemoryGraphConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGraph()

	var wg sync.WaitGroup
	for i := int64(0); i < 20; i++ {
		wg.Add(2)
		go func(i int64) {
			defer wg.Done()
			_ = g.MergeEdge(ctx, model.VertexLabelDoc, i, model.EdgeTypeRelatedTo, model.VertexLabelDoc, i+1)
		}(i)
		go func(i int64) {
			defer wg.Done()
			_, _ = g.Neighbors(ctx, model.VertexLabelDoc, i, model.EdgeTypeRelatedTo, model.DirectionOut)
		}(i)
	}
	wg.Wait()

	assert.Len(t, g.VertexIDs(model.VertexLabelDoc), 21)
}
