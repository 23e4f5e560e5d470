package fusion

import "sort"

const (
	// DefaultK is the smoothing constant added to every rank.
	DefaultK = 60
	// DefaultLimit is the number of fused ids returned.
	DefaultLimit = 20
)

// RRFScores accumulates 1/(k+rank) per id over all lists.
// order lists every id once, in the order it was first seen
// (list by list, rank by rank). Non-positive k falls back to DefaultK.
func RRFScores(lists [][]int64, k int) (order []int64, scores map[int64]float64) {
	if k <= 0 {
		k = DefaultK
	}

	scores = make(map[int64]float64)
	for _, list := range lists {
		for i, id := range list {
			if _, ok := scores[id]; !ok {
				order = append(order, id)
			}
			scores[id] += 1.0 / float64(k+i+1)
		}
	}

	return order, scores
}

// RRF fuses ranked lists into one ranking of at most limit ids.
// Exact score ties keep first-seen order.
func RRF(lists [][]int64, k, limit int) []int64 {
	ranked, _ := Rank(lists, k, limit)
	return ranked
}

// Rank is RRF returning the score map alongside the ranking.
func Rank(lists [][]int64, k, limit int) ([]int64, map[int64]float64) {
	order, scores := RRFScores(lists, k)
	if limit <= 0 {
		return []int64{}, scores
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		order = []int64{}
	}

	return order, scores
}
