package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/siherrmann/agesearch/core/eval"
	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure retrieval quality against a JSON file of cases",
	Long: `Measure precision, recall, MRR and nDCG at k against a JSON array of cases:

  [{"name": "q1", "query": "...", "label_id": 3, "relevant_ids": [1, 2]}]

label_id is optional and restricts the case to that label subtree.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		casesPath, _ := cmd.Flags().GetString("cases")
		k, _ := cmd.Flags().GetInt("k")
		benchmark, _ := cmd.Flags().GetBool("benchmark")

		cases, err := eval.LoadCases(casesPath)
		if err != nil {
			return err
		}

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		err = useEmbedder(cmd, a, nil)
		if err != nil {
			return err
		}

		config := model.DefaultSearchConfig()
		if k > config.Limit {
			config.Limit = k
		}

		report, err := a.Evaluate(commandContext(cmd), cases, eval.Options{K: k, Benchmark: benchmark}, config)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().String("cases", "", "path to the cases file")
	evalCmd.Flags().Int("k", eval.DefaultK, "metric cutoff")
	evalCmd.Flags().Bool("benchmark", false, "record p50 and p95 latency")
	evalCmd.Flags().Bool("no-embed", false, "lexical search only")
	_ = evalCmd.MarkFlagRequired("cases")
	rootCmd.AddCommand(evalCmd)
}
