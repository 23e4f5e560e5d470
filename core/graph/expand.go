package graph

import (
	"context"
	"fmt"

	"github.com/siherrmann/agesearch/model"
)

// Expander returns the vertices reachable from a seed set as raw rows.
type Expander interface {
	SelectExpandRows(ctx context.Context, query model.ExpandQuery) ([]any, error)
}

// ExpandIDs returns the distinct vertices reachable from query.SeedIDs over
// query.EdgeType within query.Hops hops. Seeds are prepended when includeSeeds is set.
// An empty seed set returns without a query.
func ExpandIDs(ctx context.Context, e Expander, query model.ExpandQuery, includeSeeds bool) ([]int64, error) {
	if len(query.SeedIDs) == 0 {
		return []int64{}, nil
	}

	d := model.DefaultExpandQuery(query.SeedIDs)
	if query.Label == "" {
		query.Label = d.Label
	}
	if query.EdgeType == "" {
		query.EdgeType = d.EdgeType
	}
	if query.Hops == 0 {
		query.Hops = d.Hops
	}
	if query.RowCap <= 0 {
		query.RowCap = d.RowCap
	}
	if query.Hops < 1 {
		return nil, fmt.Errorf("%w: hops must be positive, got %d", ErrInvalidQuery, query.Hops)
	}

	rows, err := e.SelectExpandRows(ctx, query)
	if err != nil {
		return nil, err
	}

	ids := model.CoerceIDs(rows)
	if includeSeeds {
		ids = append(append([]int64{}, query.SeedIDs...), ids...)
	}
	return unique(ids), nil
}
