package eval

import (
	"math"

	"github.com/siherrmann/agesearch/model"
)

// PrecisionAtK returns the share of the first k predictions that are relevant.
// The denominator is k, not the number of predictions.
func PrecisionAtK(pred []int64, relevant model.IDSet, k int) float64 {
	if k <= 0 || len(pred) == 0 {
		return 0
	}
	return float64(hits(top(pred, k), relevant)) / float64(k)
}

// RecallAtK returns the share of relevant ids found in the first k predictions.
func RecallAtK(pred []int64, relevant model.IDSet, k int) float64 {
	if len(relevant) == 0 || k <= 0 {
		return 0
	}
	return float64(hits(top(pred, k), relevant)) / float64(len(relevant))
}

// ReciprocalRank returns 1/rank of the first relevant prediction, or 0.
func ReciprocalRank(pred []int64, relevant model.IDSet) float64 {
	for i, id := range pred {
		if relevant.Contains(id) {
			return 1 / float64(i+1)
		}
	}
	return 0
}

// DCGAtK is the discounted cumulative gain of the first k predictions with binary gains.
func DCGAtK(pred []int64, relevant model.IDSet, k int) float64 {
	if k <= 0 {
		return 0
	}
	score := 0.0
	for i, id := range top(pred, k) {
		if relevant.Contains(id) {
			score += 1 / math.Log2(float64(i)+2)
		}
	}
	return score
}

// NDCGAtK normalises DCGAtK by the gain of a ranking whose first min(|relevant|, k) entries are relevant.
func NDCGAtK(pred []int64, relevant model.IDSet, k int) float64 {
	if k <= 0 {
		return 0
	}
	ideal := 0.0
	for i := 0; i < min(len(relevant), k); i++ {
		ideal += 1 / math.Log2(float64(i)+2)
	}
	if ideal == 0 {
		return 0
	}
	return DCGAtK(pred, relevant, k) / ideal
}

func top(pred []int64, k int) []int64 {
	if len(pred) > k {
		return pred[:k]
	}
	return pred
}

func hits(pred []int64, relevant model.IDSet) int {
	n := 0
	for _, id := range pred {
		if relevant.Contains(id) {
			n++
		}
	}
	return n
}
