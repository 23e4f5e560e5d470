package community

import (
	"context"
	"fmt"
	"sort"

	"github.com/siherrmann/agesearch/model"
)

// EdgeSource enumerates raw edge rows from a graph backend.
type EdgeSource interface {
	SelectEdgeRows(ctx context.Context, query model.EdgeQuery) ([]model.EdgeRow, error)
}

// ConnectedComponents partitions nodes plus every edge endpoint into connected groups.
// Groups are ordered by size descending, then by smallest member; members ascend.
func ConnectedComponents(nodes []int64, edges []model.Edge) [][]int64 {
	uf := NewUnionFind(nodes...)
	for _, edge := range edges {
		uf.Union(edge.Source, edge.Target)
	}

	groups := make(map[int64][]int64)
	for id := range uf.parent {
		root, _ := uf.Find(id)
		groups[root] = append(groups[root], id)
	}

	components := make([][]int64, 0, len(groups))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		components = append(components, members)
	}

	sort.Slice(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})

	return components
}

// ParseEdgeRows keeps rows that are exactly two ids and drops everything else.
func ParseEdgeRows(rows []model.EdgeRow) []model.Edge {
	edges := make([]model.Edge, 0, len(rows))
	for _, row := range rows {
		pair, ok := asPair(row)
		if !ok {
			continue
		}
		src, ok := model.CoerceID(pair[0])
		if !ok {
			continue
		}
		dst, ok := model.CoerceID(pair[1])
		if !ok {
			continue
		}
		edges = append(edges, model.Edge{Source: src, Target: dst})
	}
	return edges
}

func asPair(row model.EdgeRow) ([]any, bool) {
	switch r := row.(type) {
	case []any:
		if len(r) == 2 {
			return r, true
		}
	case []int64:
		if len(r) == 2 {
			return []any{r[0], r[1]}, true
		}
	case model.Edge:
		return []any{r.Source, r.Target}, true
	}
	return nil, false
}

// GraphConnectedComponents loads edges from src and groups their endpoints.
// When nodes is nil the node set is derived from the edges.
func GraphConnectedComponents(ctx context.Context, src EdgeSource, query model.EdgeQuery, nodes []int64) ([][]int64, error) {
	if query.Direction == "" {
		query.Direction = model.DirectionBoth
	}
	if !query.Direction.Valid() {
		return nil, fmt.Errorf("invalid edge direction %q", query.Direction)
	}
	if query.RowCap <= 0 {
		query.RowCap = model.DefaultEdgeQuery(query.Label, query.EdgeType).RowCap
	}

	rows, err := src.SelectEdgeRows(ctx, query)
	if err != nil {
		return nil, err
	}
	edges := ParseEdgeRows(rows)

	if nodes == nil {
		seen := make(map[int64]struct{}, len(edges)*2)
		nodes = make([]int64, 0, len(edges)*2)
		for _, edge := range edges {
			for _, id := range []int64{edge.Source, edge.Target} {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				nodes = append(nodes, id)
			}
		}
	}

	return ConnectedComponents(nodes, edges), nil
}
