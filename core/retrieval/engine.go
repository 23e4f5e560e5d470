package retrieval

import (
	"context"

	"github.com/siherrmann/agesearch/core/fusion"
	"github.com/siherrmann/agesearch/model"
	"golang.org/x/sync/errgroup"
)

// ScoringLexicalSource is a lexical backend that returns a score and an optional snippet per hit.
type ScoringLexicalSource interface {
	SelectDocsByBM25(ctx context.Context, text string, k int) ([]model.LexicalHit, error)
}

// PlainLexicalSource is a lexical backend that only ranks ids.
type PlainLexicalSource interface {
	SelectDocIDsByFTS(ctx context.Context, text string, k int) ([]int64, error)
}

// SemanticSource ranks documents by vector distance.
type SemanticSource interface {
	SelectDocsByVector(ctx context.Context, embedding []float32, k int, distance model.Distance) ([]model.SemanticHit, error)
}

// Hydrator fetches documents by id. Missing ids are simply absent from the result.
type Hydrator interface {
	SelectDocumentsByIDs(ctx context.Context, ids []int64) ([]*model.Document, error)
}

// Sources are the collaborators of an Engine. Nil fields are treated as absent.
type Sources struct {
	Scoring  ScoringLexicalSource
	Plain    PlainLexicalSource
	Semantic SemanticSource
	Hydrator Hydrator
}

// Engine fuses lexical and semantic candidates with reciprocal rank fusion.
type Engine struct {
	sources Sources

	HasScoringLexical bool
	HasPlainLexical   bool
	HasSemantic       bool
	HasHydrator       bool
}

// NewEngine creates a new retrieval engine. Capabilities are fixed here and never probed per request.
func NewEngine(sources Sources) *Engine {
	return &Engine{
		sources:           sources,
		HasScoringLexical: sources.Scoring != nil,
		HasPlainLexical:   sources.Plain != nil,
		HasSemantic:       sources.Semantic != nil,
		HasHydrator:       sources.Hydrator != nil,
	}
}

// candidates holds the ranked lists of one request together with per-id provenance.
type candidates struct {
	lexical    []int64
	semantic   []int64
	scores     map[int64]*float64
	snippets   map[int64]*string
	distances  map[int64]*float64
	usedScores bool
}

// Hybrid runs an unconstrained hybrid search.
func (e *Engine) Hybrid(ctx context.Context, text string, embedding []float32, config model.SearchConfig) ([]*model.SearchResult, error) {
	return e.search(ctx, text, embedding, nil, config)
}

// Constrained runs a hybrid search restricted to allowed.
// Candidates outside allowed are dropped before fusion.
// An empty allowed set returns no results without contacting any source.
func (e *Engine) Constrained(ctx context.Context, text string, embedding []float32, allowed model.IDSet, config model.SearchConfig) ([]*model.SearchResult, error) {
	if len(allowed) == 0 {
		return []*model.SearchResult{}, nil
	}
	return e.search(ctx, text, embedding, allowed, config)
}

func (e *Engine) search(ctx context.Context, text string, embedding []float32, allowed model.IDSet, config model.SearchConfig) ([]*model.SearchResult, error) {
	config = config.WithDefaults()

	c, err := e.collect(ctx, text, embedding, config)
	if err != nil {
		return nil, err
	}

	if allowed != nil {
		c.lexical = filter(c.lexical, allowed)
		c.semantic = filter(c.semantic, allowed)
	}

	fused, rrfScores := fusion.Rank([][]int64{c.lexical, c.semantic}, config.RRFK, config.Limit)
	if len(fused) == 0 {
		return []*model.SearchResult{}, nil
	}

	var documents map[int64]*model.Document
	if config.FetchObjects() && e.HasHydrator {
		docs, err := e.sources.Hydrator.SelectDocumentsByIDs(ctx, fused)
		if err != nil {
			return nil, err
		}
		documents = make(map[int64]*model.Document, len(docs))
		for _, d := range docs {
			if d != nil {
				documents[d.ID] = d
			}
		}
	}

	lexicalRanks := ranks(c.lexical)
	semanticRanks := ranks(c.semantic)

	results := make([]*model.SearchResult, 0, len(fused))
	for _, id := range fused {
		score := rrfScores[id]
		result := &model.SearchResult{
			ID:             id,
			Document:       documents[id],
			LexicalRank:    lexicalRanks[id],
			SemanticRank:   semanticRanks[id],
			VectorDistance: c.distances[id],
			RRFScore:       &score,
		}
		if c.usedScores {
			result.BM25Score = c.scores[id]
			result.Snippet = c.snippets[id]
		}
		results = append(results, result)
	}

	return results, nil
}

// collect runs the lexical and semantic phases concurrently.
// The first failing phase cancels the other and its error is returned as is.
func (e *Engine) collect(ctx context.Context, text string, embedding []float32, config model.SearchConfig) (*candidates, error) {
	c := &candidates{
		scores:    map[int64]*float64{},
		snippets:  map[int64]*string{},
		distances: map[int64]*float64{},
	}

	g, gctx := errgroup.WithContext(ctx)

	switch {
	case e.HasScoringLexical && config.PreferBM25():
		c.usedScores = true
		g.Go(func() error {
			hits, err := e.sources.Scoring.SelectDocsByBM25(gctx, text, config.KLex)
			if err != nil {
				return err
			}
			for _, h := range hits {
				c.lexical = append(c.lexical, h.ID)
				if _, ok := c.scores[h.ID]; !ok {
					c.scores[h.ID] = h.Score
					c.snippets[h.ID] = h.Snippet
				}
			}
			return nil
		})
	case e.HasPlainLexical:
		g.Go(func() error {
			ids, err := e.sources.Plain.SelectDocIDsByFTS(gctx, text, config.KLex)
			if err != nil {
				return err
			}
			c.lexical = ids
			return nil
		})
	}

	if e.HasSemantic && len(embedding) > 0 {
		g.Go(func() error {
			hits, err := e.sources.Semantic.SelectDocsByVector(gctx, embedding, config.KVec, config.Distance)
			if err != nil {
				return err
			}
			for _, h := range hits {
				c.semantic = append(c.semantic, h.ID)
				if _, ok := c.distances[h.ID]; !ok {
					c.distances[h.ID] = h.Distance
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

func filter(ids []int64, allowed model.IDSet) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if allowed.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// ranks maps each id to its 1-based position. Repeated ids keep their first position.
func ranks(ids []int64) map[int64]*int {
	out := make(map[int64]*int, len(ids))
	for i, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		rank := i + 1
		out[id] = &rank
	}
	return out
}
