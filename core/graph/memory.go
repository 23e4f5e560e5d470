package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/siherrmann/agesearch/model"
)

type vertexKey struct {
	label string
	id    int64
}

type memoryEdge struct {
	from     vertexKey
	to       vertexKey
	edgeType string
}

// MemoryGraph is an in-process labelled property graph keyed by (label, id).
// It answers the same queries as the AGE and Neo4j handlers and is safe for concurrent use.
type MemoryGraph struct {
	mu       sync.RWMutex
	vertices map[vertexKey]model.Metadata
	edges    []memoryEdge
	out      map[vertexKey][]int
	in       map[vertexKey][]int
}

// NewMemoryGraph creates an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		vertices: make(map[vertexKey]model.Metadata),
		out:      make(map[vertexKey][]int),
		in:       make(map[vertexKey][]int),
	}
}

// UpsertVertex creates the vertex or merges props into it.
func (g *MemoryGraph) UpsertVertex(ctx context.Context, label string, id int64, props model.Metadata) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := vertexKey{label, id}
	current, ok := g.vertices[key]
	if !ok {
		current = model.Metadata{}
	}
	for k, v := range props {
		current[k] = v
	}
	current["id"] = id
	g.vertices[key] = current
	return nil
}

// DeleteVertex removes the vertex and every edge touching it.
func (g *MemoryGraph) DeleteVertex(ctx context.Context, label string, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := vertexKey{label, id}
	delete(g.vertices, key)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.from != key && e.to != key {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	g.reindex()
	return nil
}

// MergeEdge adds a directed edge once. Missing endpoints are created.
func (g *MemoryGraph) MergeEdge(ctx context.Context, fromLabel string, fromID int64, edgeType string, toLabel string, toID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	from := vertexKey{fromLabel, fromID}
	to := vertexKey{toLabel, toID}
	for _, i := range g.out[from] {
		if g.edges[i].to == to && g.edges[i].edgeType == edgeType {
			return nil
		}
	}

	for _, key := range []vertexKey{from, to} {
		if _, ok := g.vertices[key]; !ok {
			g.vertices[key] = model.Metadata{"id": key.id}
		}
	}

	g.edges = append(g.edges, memoryEdge{from: from, to: to, edgeType: edgeType})
	g.out[from] = append(g.out[from], len(g.edges)-1)
	g.in[to] = append(g.in[to], len(g.edges)-1)
	return nil
}

func (g *MemoryGraph) reindex() {
	g.out = make(map[vertexKey][]int)
	g.in = make(map[vertexKey][]int)
	for i, e := range g.edges {
		g.out[e.from] = append(g.out[e.from], i)
		g.in[e.to] = append(g.in[e.to], i)
	}
}

// Neighbors implements Adjacency. Only neighbours with the same label are returned.
func (g *MemoryGraph) Neighbors(ctx context.Context, label string, id int64, edgeType string, direction model.Direction) ([]int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.neighbors(vertexKey{label, id}, edgeType, direction), nil
}

func (g *MemoryGraph) neighbors(key vertexKey, edgeType string, direction model.Direction) []int64 {
	var ids []int64
	if direction == model.DirectionOut || direction == model.DirectionBoth {
		for _, i := range g.out[key] {
			e := g.edges[i]
			if e.edgeType == edgeType && e.to.label == key.label {
				ids = append(ids, e.to.id)
			}
		}
	}
	if direction == model.DirectionIn || direction == model.DirectionBoth {
		for _, i := range g.in[key] {
			e := g.edges[i]
			if e.edgeType == edgeType && e.from.label == key.label {
				ids = append(ids, e.from.id)
			}
		}
	}
	return ids
}

// SelectEdgeRows returns [a, b] rows like the cypher edge list query:
// out yields (source, target), in yields (target, source), both yields each edge in both orientations.
func (g *MemoryGraph) SelectEdgeRows(ctx context.Context, query model.EdgeQuery) ([]model.EdgeRow, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rows := []model.EdgeRow{}
	add := func(a, b int64) bool {
		if query.RowCap > 0 && len(rows) >= query.RowCap {
			return false
		}
		rows = append(rows, []any{a, b})
		return true
	}

	for _, e := range g.edges {
		if e.edgeType != query.EdgeType || e.from.label != query.Label || e.to.label != query.Label {
			continue
		}
		switch query.Direction {
		case model.DirectionOut:
			if !add(e.from.id, e.to.id) {
				return rows, nil
			}
		case model.DirectionIn:
			if !add(e.to.id, e.from.id) {
				return rows, nil
			}
		default:
			if !add(e.from.id, e.to.id) || !add(e.to.id, e.from.id) {
				return rows, nil
			}
		}
	}
	return rows, nil
}

// SelectTraversalRows implements Traverser with a bounded BFS along outgoing edges.
// A missing root yields no rows.
func (g *MemoryGraph) SelectTraversalRows(ctx context.Context, query model.TraversalQuery) ([]any, error) {
	g.mu.RLock()
	_, ok := g.vertices[vertexKey{query.Label, query.RootID}]
	g.mu.RUnlock()
	if !ok {
		return []any{}, nil
	}

	ids, err := Reachable(ctx, g, query.Label, query.RootID, query.EdgeType, query.MaxHops, query.RowCap)
	if err != nil {
		return nil, err
	}
	return toRows(ids), nil
}

// SelectDocIDRows implements GraphAssociation.
func (g *MemoryGraph) SelectDocIDRows(ctx context.Context, query model.AssociationQuery) ([]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	wanted := model.NewIDSet(query.LabelIDs...)
	seen := make(map[int64]struct{})
	rows := []any{}
	for _, e := range g.edges {
		if e.edgeType != query.EdgeType || e.from.label != query.DocLabel || e.to.label != query.Label {
			continue
		}
		if !wanted.Contains(e.to.id) {
			continue
		}
		if _, ok := seen[e.from.id]; ok {
			continue
		}
		if query.RowCap > 0 && len(rows) >= query.RowCap {
			break
		}
		seen[e.from.id] = struct{}{}
		rows = append(rows, e.from.id)
	}
	return rows, nil
}

// SelectExpandRows implements Expander.
func (g *MemoryGraph) SelectExpandRows(ctx context.Context, query model.ExpandQuery) ([]any, error) {
	seen := make(map[int64]struct{})
	rows := []any{}
	for _, seed := range query.SeedIDs {
		g.mu.RLock()
		_, ok := g.vertices[vertexKey{query.Label, seed}]
		g.mu.RUnlock()
		if !ok {
			continue
		}

		ids, err := Reachable(ctx, g, query.Label, seed, query.EdgeType, query.Hops, 0)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			if query.RowCap > 0 && len(rows) >= query.RowCap {
				return rows, nil
			}
			seen[id] = struct{}{}
			rows = append(rows, id)
		}
	}
	return rows, nil
}

// VertexIDs returns the ids of every vertex with label in ascending order.
func (g *MemoryGraph) VertexIDs(label string) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ids []int64
	for key := range g.vertices {
		if key.label == label {
			ids = append(ids, key.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func toRows(ids []int64) []any {
	rows := make([]any, len(ids))
	for i, id := range ids {
		rows[i] = id
	}
	return rows
}

// Hierarchy is an in-memory parent-pointer forest of labels.
type Hierarchy struct {
	children map[int64][]int64
	known    map[int64]struct{}
}

// NewHierarchy indexes labels by parent. Children are kept in ascending id order.
func NewHierarchy(labels []*model.Label) *Hierarchy {
	h := &Hierarchy{
		children: make(map[int64][]int64),
		known:    make(map[int64]struct{}, len(labels)),
	}
	for _, l := range labels {
		h.known[l.ID] = struct{}{}
		if l.ParentID != nil {
			h.children[*l.ParentID] = append(h.children[*l.ParentID], l.ID)
		}
	}
	for parent := range h.children {
		c := h.children[parent]
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	}
	return h
}

// Neighbors implements Adjacency over child-of edges. Label, edge type and direction are ignored.
func (h *Hierarchy) Neighbors(ctx context.Context, label string, id int64, edgeType string, direction model.Direction) ([]int64, error) {
	return h.children[id], nil
}

// SelectDescendantLabelIDs implements ClosureSource: root first, then descendants breadth first.
// An unknown root yields nothing.
func (h *Hierarchy) SelectDescendantLabelIDs(ctx context.Context, rootID int64) ([]int64, error) {
	if _, ok := h.known[rootID]; !ok {
		return []int64{}, nil
	}

	// every path in a forest is shorter than the node count
	results, err := BFS(ctx, h, model.VertexLabelLabel, rootID, model.EdgeTypeParentOf, model.DirectionOut, len(h.known), 0)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids, nil
}
