package retrieval

import (
	"context"

	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/model"
)

// Query is the input shared by every strategy.
type Query struct {
	Text      string
	Embedding []float32
	Config    model.SearchConfig
}

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error)
}

// HybridStrategy fuses lexical and semantic candidates without constraints
type HybridStrategy struct {
	engine *Engine
}

// NewHybridStrategy creates a new hybrid strategy
func NewHybridStrategy(engine *Engine) *HybridStrategy {
	return &HybridStrategy{engine: engine}
}

// Retrieve performs hybrid retrieval
func (s *HybridStrategy) Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error) {
	return s.engine.Hybrid(ctx, query.Text, query.Embedding, query.Config)
}

// ConstrainedStrategy restricts hybrid retrieval to a fixed allow-set
type ConstrainedStrategy struct {
	engine  *Engine
	allowed model.IDSet
}

// NewConstrainedStrategy creates a new constrained strategy
func NewConstrainedStrategy(engine *Engine, allowed []int64) *ConstrainedStrategy {
	return &ConstrainedStrategy{engine: engine, allowed: model.NewIDSet(allowed...)}
}

// Retrieve performs constrained retrieval
func (s *ConstrainedStrategy) Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error) {
	return s.engine.Constrained(ctx, query.Text, query.Embedding, s.allowed, query.Config)
}

// LabelSubtreeStrategy constrains retrieval to the documents tagged with a label
// or any of its descendants in the graph
type LabelSubtreeStrategy struct {
	engine      *Engine
	traverser   graph.Traverser
	association graph.GraphAssociation
	rootID      int64
	subtree     model.SubtreeConfig
}

// NewLabelSubtreeStrategy creates a new graph label subtree strategy
func NewLabelSubtreeStrategy(engine *Engine, traverser graph.Traverser, association graph.GraphAssociation, rootID int64, subtree model.SubtreeConfig) *LabelSubtreeStrategy {
	return &LabelSubtreeStrategy{
		engine:      engine,
		traverser:   traverser,
		association: association,
		rootID:      rootID,
		subtree:     subtree,
	}
}

// Retrieve expands the label subtree, projects it onto documents and runs a constrained search
func (s *LabelSubtreeStrategy) Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error) {
	docIDs, err := graph.GraphDocIDsInLabelSubtree(ctx, s.traverser, s.association, s.rootID, s.subtree)
	if err != nil {
		return nil, err
	}
	return s.engine.Constrained(ctx, query.Text, query.Embedding, model.NewIDSet(docIDs...), query.Config)
}

// RelationalLabelSubtreeStrategy is LabelSubtreeStrategy over the relational hierarchy
type RelationalLabelSubtreeStrategy struct {
	engine      *Engine
	closure     graph.ClosureSource
	association graph.Association
	rootID      int64
	includeSelf bool
}

// NewRelationalLabelSubtreeStrategy creates a new relational label subtree strategy
func NewRelationalLabelSubtreeStrategy(engine *Engine, closure graph.ClosureSource, association graph.Association, rootID int64, includeSelf bool) *RelationalLabelSubtreeStrategy {
	return &RelationalLabelSubtreeStrategy{
		engine:      engine,
		closure:     closure,
		association: association,
		rootID:      rootID,
		includeSelf: includeSelf,
	}
}

// Retrieve expands the label subtree relationally and runs a constrained search
func (s *RelationalLabelSubtreeStrategy) Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error) {
	docIDs, err := graph.DocIDsInLabelSubtree(ctx, s.closure, s.association, s.rootID, s.includeSelf)
	if err != nil {
		return nil, err
	}
	return s.engine.Constrained(ctx, query.Text, query.Embedding, model.NewIDSet(docIDs...), query.Config)
}

// ExpandedStrategy constrains retrieval to the graph neighbourhood of seed documents
type ExpandedStrategy struct {
	engine   *Engine
	expander graph.Expander
	expand   model.ExpandQuery
}

// NewExpandedStrategy creates a new expanded strategy. Seeds are part of the allow-set.
func NewExpandedStrategy(engine *Engine, expander graph.Expander, expand model.ExpandQuery) *ExpandedStrategy {
	return &ExpandedStrategy{engine: engine, expander: expander, expand: expand}
}

// Retrieve performs expanded retrieval
func (s *ExpandedStrategy) Retrieve(ctx context.Context, query Query) ([]*model.SearchResult, error) {
	docIDs, err := graph.ExpandIDs(ctx, s.expander, s.expand, true)
	if err != nil {
		return nil, err
	}
	return s.engine.Constrained(ctx, query.Text, query.Embedding, model.NewIDSet(docIDs...), query.Config)
}

// InLabelSubtree runs a constrained search over the documents of a graph label subtree.
func (e *Engine) InLabelSubtree(ctx context.Context, text string, embedding []float32, traverser graph.Traverser, association graph.GraphAssociation, rootID int64, subtree model.SubtreeConfig, config model.SearchConfig) ([]*model.SearchResult, error) {
	return NewLabelSubtreeStrategy(e, traverser, association, rootID, subtree).Retrieve(ctx, Query{Text: text, Embedding: embedding, Config: config})
}

// InLabelSubtreeRelational runs a constrained search over the documents of a relational label subtree.
func (e *Engine) InLabelSubtreeRelational(ctx context.Context, text string, embedding []float32, closure graph.ClosureSource, association graph.Association, rootID int64, includeSelf bool, config model.SearchConfig) ([]*model.SearchResult, error) {
	return NewRelationalLabelSubtreeStrategy(e, closure, association, rootID, includeSelf).Retrieve(ctx, Query{Text: text, Embedding: embedding, Config: config})
}
