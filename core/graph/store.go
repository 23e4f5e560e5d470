package graph

import (
	"context"

	"github.com/siherrmann/agesearch/model"
)

// Store is a graph backend that mirrors documents and labels and answers
// every graph query of the search engine. MemoryGraph, the AGE handler and the
// Neo4j handler implement it.
type Store interface {
	Adjacency
	Traverser
	GraphAssociation
	Expander
	SelectEdgeRows(ctx context.Context, query model.EdgeQuery) ([]model.EdgeRow, error)
	UpsertVertex(ctx context.Context, label string, id int64, props model.Metadata) error
	DeleteVertex(ctx context.Context, label string, id int64) error
	MergeEdge(ctx context.Context, fromLabel string, fromID int64, edgeType string, toLabel string, toID int64) error
}

var _ Store = (*MemoryGraph)(nil)
