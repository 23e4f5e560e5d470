package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/siherrmann/agesearch/model"
)

// ErrInvalidQuery is returned for queries that cannot be run, like a non positive hop count.
var ErrInvalidQuery = errors.New("invalid query")

// ClosureSource returns the descendants of a label including the label itself.
// The labels handler answers this with a recursive CTE, Hierarchy answers it in memory.
type ClosureSource interface {
	SelectDescendantLabelIDs(ctx context.Context, rootID int64) ([]int64, error)
}

// Association maps labels to documents through the doc_labels relation.
type Association interface {
	SelectDocIDsForLabels(ctx context.Context, labelIDs []int64) ([]int64, error)
}

// Traverser runs a bounded traversal and returns the reached ids as raw rows.
// Rows may repeat or be null.
type Traverser interface {
	SelectTraversalRows(ctx context.Context, query model.TraversalQuery) ([]any, error)
}

// GraphAssociation maps labels to documents through a graph edge.
type GraphAssociation interface {
	SelectDocIDRows(ctx context.Context, query model.AssociationQuery) ([]any, error)
}

// DescendantLabelIDs returns the closure of rootID from src.
// The root is kept only when includeSelf is set.
func DescendantLabelIDs(ctx context.Context, src ClosureSource, rootID int64, includeSelf bool) ([]int64, error) {
	ids, err := src.SelectDescendantLabelIDs(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return dedupe(ids, rootID, includeSelf), nil
}

// GraphDescendantLabelIDs returns the labels reachable from query.RootID within
// query.MaxHops hops, first-seen order, with the root appended when includeSelf is set.
func GraphDescendantLabelIDs(ctx context.Context, t Traverser, query model.TraversalQuery, includeSelf bool) ([]int64, error) {
	query = withTraversalDefaults(query)
	if query.MaxHops < 1 {
		return nil, fmt.Errorf("%w: max hops must be positive, got %d", ErrInvalidQuery, query.MaxHops)
	}

	rows, err := t.SelectTraversalRows(ctx, query)
	if err != nil {
		return nil, err
	}

	ids := model.CoerceIDs(rows)
	if includeSelf {
		ids = append(ids, query.RootID)
	}
	return dedupe(ids, query.RootID, includeSelf), nil
}

// DocIDsForLabels returns the distinct documents attached to any of labelIDs.
// No query is issued for an empty input.
func DocIDsForLabels(ctx context.Context, a Association, labelIDs []int64) ([]int64, error) {
	if len(labelIDs) == 0 {
		return []int64{}, nil
	}

	ids, err := a.SelectDocIDsForLabels(ctx, labelIDs)
	if err != nil {
		return nil, err
	}
	return unique(ids), nil
}

// GraphDocIDsForLabels is DocIDsForLabels over a graph association edge.
func GraphDocIDsForLabels(ctx context.Context, a GraphAssociation, query model.AssociationQuery) ([]int64, error) {
	if len(query.LabelIDs) == 0 {
		return []int64{}, nil
	}

	d := model.DefaultAssociationQuery(query.LabelIDs)
	if query.DocLabel == "" {
		query.DocLabel = d.DocLabel
	}
	if query.Label == "" {
		query.Label = d.Label
	}
	if query.EdgeType == "" {
		query.EdgeType = d.EdgeType
	}
	if query.RowCap <= 0 {
		query.RowCap = d.RowCap
	}

	rows, err := a.SelectDocIDRows(ctx, query)
	if err != nil {
		return nil, err
	}
	return unique(model.CoerceIDs(rows)), nil
}

// GraphDocIDsInLabelSubtree expands rootID in the graph and projects the labels onto documents.
// The label expansion is capped at min(DocRowCap, LabelRowCap).
func GraphDocIDsInLabelSubtree(ctx context.Context, t Traverser, a GraphAssociation, rootID int64, config model.SubtreeConfig) ([]int64, error) {
	config = withSubtreeDefaults(config)

	traversal := model.DefaultTraversalQuery(rootID)
	traversal.MaxHops = config.MaxHops
	traversal.RowCap = min(config.DocRowCap, config.LabelRowCap)

	labelIDs, err := GraphDescendantLabelIDs(ctx, t, traversal, config.IncludeSelf)
	if err != nil {
		return nil, err
	}

	association := model.DefaultAssociationQuery(labelIDs)
	association.RowCap = config.DocRowCap
	return GraphDocIDsForLabels(ctx, a, association)
}

// DocIDsInLabelSubtree is the relational counterpart of GraphDocIDsInLabelSubtree.
func DocIDsInLabelSubtree(ctx context.Context, src ClosureSource, a Association, rootID int64, includeSelf bool) ([]int64, error) {
	labelIDs, err := DescendantLabelIDs(ctx, src, rootID, includeSelf)
	if err != nil {
		return nil, err
	}
	return DocIDsForLabels(ctx, a, labelIDs)
}

func withTraversalDefaults(query model.TraversalQuery) model.TraversalQuery {
	d := model.DefaultTraversalQuery(query.RootID)
	if query.Label == "" {
		query.Label = d.Label
	}
	if query.EdgeType == "" {
		query.EdgeType = d.EdgeType
	}
	if query.MaxHops == 0 {
		query.MaxHops = d.MaxHops
	}
	if query.RowCap <= 0 {
		query.RowCap = d.RowCap
	}
	return query
}

func withSubtreeDefaults(config model.SubtreeConfig) model.SubtreeConfig {
	d := model.DefaultSubtreeConfig()
	if config.MaxHops == 0 {
		config.MaxHops = d.MaxHops
	}
	if config.LabelRowCap <= 0 {
		config.LabelRowCap = d.LabelRowCap
	}
	if config.DocRowCap <= 0 {
		config.DocRowCap = d.DocRowCap
	}
	return config
}

// dedupe keeps first occurrences and drops rootID unless includeSelf is set.
func dedupe(ids []int64, rootID int64, includeSelf bool) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == rootID && !includeSelf {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
