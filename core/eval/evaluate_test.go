package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	cases := []Case{
		{Name: "a", RelevantIDs: []int64{1}},
		{Name: "b", RelevantIDs: []int64{2}},
	}
	search := func(ctx context.Context, c Case) ([]int64, error) {
		if c.Name == "a" {
			return []int64{1, 2, 3}, nil
		}
		return []int64{3, 2, 1}, nil
	}

	t.Run("Aggregates means", func(t *testing.T) {
		report, err := Evaluate(ctx, cases, search, Options{K: 2})

		require.NoError(t, err, "Expected Evaluate to not return an error")
		assert.Equal(t, 2, report.N)
		assert.Equal(t, 2, report.K)
		assert.InDelta(t, 0.5, report.Precision, 1e-12)
		assert.InDelta(t, 1.0, report.Recall, 1e-12)
		assert.InDelta(t, 0.75, report.MRR, 1e-12)
		assert.Nil(t, report.P50Ms, "Expected no latency without benchmarking")
		assert.Nil(t, report.P95Ms)
	})

	t.Run("Default k", func(t *testing.T) {
		report, err := Evaluate(ctx, cases, search, Options{})

		require.NoError(t, err)
		assert.Equal(t, DefaultK, report.K)
	})

	t.Run("Benchmark records latency", func(t *testing.T) {
		report, err := Evaluate(ctx, cases, search, Options{Benchmark: true})

		require.NoError(t, err)
		require.NotNil(t, report.P50Ms)
		require.NotNil(t, report.P95Ms)
		assert.LessOrEqual(t, *report.P50Ms, *report.P95Ms)
	})

	t.Run("No cases", func(t *testing.T) {
		report, err := Evaluate(ctx, nil, search, Options{Benchmark: true})

		require.NoError(t, err)
		assert.Equal(t, 0, report.N)
		assert.Equal(t, 0.0, report.Precision)
		assert.Nil(t, report.P50Ms)
	})

	t.Run("Search error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		failing := func(ctx context.Context, c Case) ([]int64, error) { return nil, boom }

		report, err := Evaluate(ctx, cases, failing, Options{})

		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `"a"`)
		assert.Nil(t, report)
	})
}

func TestPercentile(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, Percentile(nil, 50))
	})

	t.Run("Nearest rank", func(t *testing.T) {
		samples := []float64{5, 1, 4, 2, 3}

		assert.Equal(t, 3.0, *Percentile(samples, 50))
		assert.Equal(t, 5.0, *Percentile(samples, 95))
		assert.Equal(t, 1.0, *Percentile(samples, 0))
		assert.Equal(t, 5.0, *Percentile(samples, 150), "Expected index to be clamped")
	})

	t.Run("Half index rounds to even", func(t *testing.T) {
		// 0.5 * 3 = 1.5 rounds to 2
		assert.Equal(t, 30.0, *Percentile([]float64{10, 20, 30, 40}, 50))
		// 0.5 * 1 = 0.5 rounds to 0
		assert.Equal(t, 10.0, *Percentile([]float64{10, 20}, 50))
	})

	t.Run("Input is not reordered", func(t *testing.T) {
		samples := []float64{3, 1, 2}
		Percentile(samples, 50)

		assert.Equal(t, []float64{3, 1, 2}, samples)
	})
}

func TestLoadCases(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid file", func(t *testing.T) {
		path := filepath.Join(dir, "cases.json")
		content := `[{"name":"a","query":"graph search","label_id":3,"relevant_ids":[1,2]}]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cases, err := LoadCases(path)

		require.NoError(t, err)
		require.Len(t, cases, 1)
		assert.Equal(t, "graph search", cases[0].Query)
		assert.Equal(t, int64(3), *cases[0].LabelID)
		assert.Equal(t, []int64{1, 2}, cases[0].RelevantIDs)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadCases(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("Invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

		_, err := LoadCases(path)
		assert.Error(t, err)
	})
}
