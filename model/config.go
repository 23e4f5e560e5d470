package model

// Distance is the vector distance used by semantic search.
type Distance string

const (
	DistanceCosine       Distance = "cosine"
	DistanceL2           Distance = "l2"
	DistanceInnerProduct Distance = "inner_product" // ordered by negative inner product
)

// Valid reports whether d is a supported distance.
func (d Distance) Valid() bool {
	switch d {
	case DistanceCosine, DistanceL2, DistanceInnerProduct:
		return true
	}
	return false
}

// SearchConfig controls one hybrid search request.
// The zero value is usable: BM25 is preferred and documents are hydrated unless opted out.
type SearchConfig struct {
	KLex          int      `json:"k_lex"`          // lexical candidates
	KVec          int      `json:"k_vec"`          // semantic candidates
	Limit         int      `json:"limit"`          // fused results returned
	DisableBM25   bool     `json:"disable_bm25"`   // use plain full text search even when a scoring source exists
	RRFK          int      `json:"rrf_k"`          // rank fusion smoothing constant
	SkipHydration bool     `json:"skip_hydration"` // return ids and provenance without documents
	Distance      Distance `json:"distance"`
}

// PreferBM25 reports whether the scoring lexical source should be used when available.
func (c SearchConfig) PreferBM25() bool {
	return !c.DisableBM25
}

// FetchObjects reports whether fused ids are hydrated into documents.
func (c SearchConfig) FetchObjects() bool {
	return !c.SkipHydration
}

// DefaultSearchConfig returns the default request configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		KLex:     50,
		KVec:     50,
		Limit:    20,
		RRFK:     60,
		Distance: DistanceCosine,
	}
}

// WithDefaults fills zero numeric fields and an empty distance from DefaultSearchConfig.
func (c SearchConfig) WithDefaults() SearchConfig {
	d := DefaultSearchConfig()
	if c.KLex == 0 {
		c.KLex = d.KLex
	}
	if c.KVec == 0 {
		c.KVec = d.KVec
	}
	if c.Limit == 0 {
		c.Limit = d.Limit
	}
	if c.RRFK == 0 {
		c.RRFK = d.RRFK
	}
	if c.Distance == "" {
		c.Distance = d.Distance
	}
	return c
}

// SubtreeConfig controls label subtree expansion before a constrained search.
type SubtreeConfig struct {
	IncludeSelf bool `json:"include_self"`
	MaxHops     int  `json:"max_hops"`      // graph traversal depth
	LabelRowCap int  `json:"label_row_cap"` // traversal rows
	DocRowCap   int  `json:"doc_row_cap"`   // association rows
}

// DefaultSubtreeConfig returns the default subtree expansion configuration.
func DefaultSubtreeConfig() SubtreeConfig {
	return SubtreeConfig{
		IncludeSelf: true,
		MaxHops:     25,
		LabelRowCap: 5000,
		DocRowCap:   50000,
	}
}

// GraphConfig identifies the Apache AGE graph and the search path every cypher call runs with.
type GraphConfig struct {
	GraphName  string `json:"graph_name"`
	SearchPath string `json:"search_path"`
}

// DefaultGraphConfig returns the default graph configuration.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		GraphName:  "knowledge_graph",
		SearchPath: "ag_catalog, public",
	}
}

// EdgeQuery selects edges between vertices of one label.
type EdgeQuery struct {
	Label     string    `json:"label"`
	EdgeType  string    `json:"edge_type"`
	Direction Direction `json:"direction"`
	RowCap    int       `json:"row_cap"`
}

// DefaultEdgeQuery returns an undirected edge query with the default row cap.
func DefaultEdgeQuery(label, edgeType string) EdgeQuery {
	return EdgeQuery{
		Label:     label,
		EdgeType:  edgeType,
		Direction: DirectionBoth,
		RowCap:    200000,
	}
}

// TraversalQuery walks outgoing edges from a root vertex.
type TraversalQuery struct {
	Label    string `json:"label"`
	RootID   int64  `json:"root_id"`
	EdgeType string `json:"edge_type"`
	MaxHops  int    `json:"max_hops"`
	RowCap   int    `json:"row_cap"`
}

// DefaultTraversalQuery returns a PARENT_OF traversal over labels.
func DefaultTraversalQuery(rootID int64) TraversalQuery {
	return TraversalQuery{
		Label:    VertexLabelLabel,
		RootID:   rootID,
		EdgeType: EdgeTypeParentOf,
		MaxHops:  25,
		RowCap:   5000,
	}
}

// AssociationQuery resolves documents linked to any of the given labels.
type AssociationQuery struct {
	DocLabel string  `json:"doc_label"`
	Label    string  `json:"label"`
	EdgeType string  `json:"edge_type"`
	LabelIDs []int64 `json:"label_ids"`
	RowCap   int     `json:"row_cap"`
}

// DefaultAssociationQuery returns a HAS_LABEL association query.
func DefaultAssociationQuery(labelIDs []int64) AssociationQuery {
	return AssociationQuery{
		DocLabel: VertexLabelDoc,
		Label:    VertexLabelLabel,
		EdgeType: EdgeTypeHasLabel,
		LabelIDs: labelIDs,
		RowCap:   50000,
	}
}

// ExpandQuery grows a seed set along one edge type.
type ExpandQuery struct {
	Label    string  `json:"label"`
	SeedIDs  []int64 `json:"seed_ids"`
	EdgeType string  `json:"edge_type"`
	Hops     int     `json:"hops"`
	RowCap   int     `json:"row_cap"`
}

// DefaultExpandQuery returns a one hop RELATED_TO expansion over documents.
func DefaultExpandQuery(seedIDs []int64) ExpandQuery {
	return ExpandQuery{
		Label:    VertexLabelDoc,
		SeedIDs:  seedIDs,
		EdgeType: EdgeTypeRelatedTo,
		Hops:     1,
		RowCap:   500,
	}
}

// Capabilities lists the optional extensions installed in the database.
type Capabilities struct {
	HasAGE      bool `json:"has_age"`
	HasVector   bool `json:"has_vector"`
	HasPgSearch bool `json:"has_pg_search"`
}
