package graph

import (
	"context"

	"github.com/siherrmann/agesearch/model"
)

// Adjacency lists the neighbours of a vertex along one edge type.
type Adjacency interface {
	Neighbors(ctx context.Context, label string, id int64, edgeType string, direction model.Direction) ([]int64, error)
}

// TraversalResult is a vertex reached from the source with its hop distance.
type TraversalResult struct {
	ID       int64
	Distance int
	Path     []int64 // source first
}

// BFS performs breadth-first search from sourceID over vertices of one label.
// The source is returned first with distance 0. Traversal stops at maxHops,
// and once rowCap vertices beyond the source were reached (rowCap <= 0 disables the cap).
func BFS(ctx context.Context, adj Adjacency, label string, sourceID int64, edgeType string, direction model.Direction, maxHops int, rowCap int) ([]*TraversalResult, error) {
	visited := map[int64]bool{sourceID: true}
	queue := []*TraversalResult{{
		ID:       sourceID,
		Distance: 0,
		Path:     []int64{sourceID},
	}}

	var results []*TraversalResult
	reached := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]
		results = append(results, current)

		if current.Distance >= maxHops {
			continue
		}

		neighbors, err := adj.Neighbors(ctx, label, current.ID, edgeType, direction)
		if err != nil {
			return nil, err
		}

		for _, targetID := range neighbors {
			if visited[targetID] {
				continue
			}
			if rowCap > 0 && reached >= rowCap {
				break
			}
			visited[targetID] = true
			reached++

			newPath := make([]int64, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)
			newPath = append(newPath, targetID)

			queue = append(queue, &TraversalResult{
				ID:       targetID,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// Reachable returns the ids reached by BFS, excluding the source, in visit order.
func Reachable(ctx context.Context, adj Adjacency, label string, sourceID int64, edgeType string, maxHops int, rowCap int) ([]int64, error) {
	results, err := BFS(ctx, adj, label, sourceID, edgeType, model.DirectionOut, maxHops, rowCap)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(results))
	for _, r := range results[1:] {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
