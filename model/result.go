package model

// LexicalHit is one row of a scoring lexical search.
type LexicalHit struct {
	ID      int64    `json:"id"`
	Score   *float64 `json:"score,omitempty"`
	Snippet *string  `json:"snippet,omitempty"`
}

// SemanticHit is one row of a vector search.
type SemanticHit struct {
	ID       int64    `json:"id"`
	Distance *float64 `json:"distance,omitempty"`
}

// SearchResult is one fused result with its provenance.
// Document stays nil when hydration is off or the record vanished.
type SearchResult struct {
	ID             int64     `json:"id"`
	Document       *Document `json:"document,omitempty"`
	BM25Score      *float64  `json:"bm25_score,omitempty"`
	Snippet        *string   `json:"snippet,omitempty"`
	LexicalRank    *int      `json:"lexical_rank,omitempty"`
	SemanticRank   *int      `json:"semantic_rank,omitempty"`
	VectorDistance *float64  `json:"vector_distance,omitempty"`
	RRFScore       *float64  `json:"rrf_score,omitempty"`
}
