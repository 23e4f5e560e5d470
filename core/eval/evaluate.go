package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// DefaultK is the cutoff used when Options.K is not set.
const DefaultK = 10

// Case is one query with its known relevant documents.
type Case struct {
	Name        string  `json:"name"`
	Query       string  `json:"query"`
	LabelID     *int64  `json:"label_id,omitempty"` // optional subtree constraint
	RelevantIDs []int64 `json:"relevant_ids"`
}

// SearchFunc returns the ranked document ids for a case.
type SearchFunc func(ctx context.Context, c Case) ([]int64, error)

// Options controls an evaluation run.
type Options struct {
	K         int
	Benchmark bool
}

// Report holds the mean metrics over all cases.
// Latency percentiles are only set when benchmarking.
type Report struct {
	N         int      `json:"n"`
	K         int      `json:"k"`
	Precision float64  `json:"precision_at_k"`
	Recall    float64  `json:"recall_at_k"`
	MRR       float64  `json:"mrr"`
	NDCG      float64  `json:"ndcg_at_k"`
	P50Ms     *float64 `json:"p50_ms,omitempty"`
	P95Ms     *float64 `json:"p95_ms,omitempty"`
}

// Evaluate runs search once per case and aggregates the metrics.
// The first search error aborts the run.
func Evaluate(ctx context.Context, cases []Case, search SearchFunc, opts Options) (*Report, error) {
	k := opts.K
	if k == 0 {
		k = DefaultK
	}

	var precision, recall, mrr, ndcg []float64
	var latencies []float64

	for _, c := range cases {
		start := time.Now()
		pred, err := search(ctx, c)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("evaluating case %q", c.Name), err)
		}
		if opts.Benchmark {
			latencies = append(latencies, float64(time.Since(start).Microseconds())/1000)
		}

		relevant := model.NewIDSet(c.RelevantIDs...)
		precision = append(precision, PrecisionAtK(pred, relevant, k))
		recall = append(recall, RecallAtK(pred, relevant, k))
		mrr = append(mrr, ReciprocalRank(pred, relevant))
		ndcg = append(ndcg, NDCGAtK(pred, relevant, k))
	}

	report := &Report{
		N:         len(cases),
		K:         k,
		Precision: mean(precision),
		Recall:    mean(recall),
		MRR:       mean(mrr),
		NDCG:      mean(ndcg),
	}
	if opts.Benchmark {
		report.P50Ms = Percentile(latencies, 50)
		report.P95Ms = Percentile(latencies, 95)
	}
	return report, nil
}

// Percentile returns the nearest-rank percentile of samples, or nil when there are none.
// The index is round(pct/100 * (n-1)) with ties to even, clamped to the sample range.
func Percentile(samples []float64, pct float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	xs := append([]float64(nil), samples...)
	sort.Float64s(xs)

	i := int(math.RoundToEven(pct / 100 * float64(len(xs)-1)))
	i = max(0, min(i, len(xs)-1))
	v := xs[i]
	return &v
}

// LoadCases reads a JSON array of cases from path.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("reading cases", err)
	}

	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, helper.NewError("decoding cases", err)
	}
	return cases, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
