package model

// Direction selects which edges of a vertex are followed.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	switch d {
	case DirectionOut, DirectionIn, DirectionBoth:
		return true
	}
	return false
}

// Edge types used by the write path and the default queries.
const (
	EdgeTypeParentOf  = "PARENT_OF"
	EdgeTypeHasLabel  = "HAS_LABEL"
	EdgeTypeRelatedTo = "RELATED_TO"
)

// Vertex labels used by the write path.
const (
	VertexLabelDoc   = "Doc"
	VertexLabelLabel = "Label"
)

// Edge is a directed pair of vertex ids.
type Edge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// EdgeRow is one raw row returned by a graph backend for an edge query.
// Well formed rows are two element lists of ids; anything else is skipped by the parser.
type EdgeRow = any
