package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a hybrid search",
	Long: `Run a hybrid search. With --label the search is restricted to the documents
of the label subtree, resolved in the graph when available and in the labels
table otherwise.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		labelID, _ := cmd.Flags().GetInt64("label")
		distance, _ := cmd.Flags().GetString("distance")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		err = useEmbedder(cmd, a, nil)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		query := strings.Join(args, " ")
		config := model.DefaultSearchConfig()
		config.Limit = limit
		config.Distance = model.Distance(distance)

		var results []*model.SearchResult
		switch {
		case labelID == 0:
			results, err = a.Search(ctx, query, config)
		case a.Graph != nil:
			results, err = a.SearchInLabelSubtree(ctx, query, labelID, model.DefaultSubtreeConfig(), config)
		default:
			results, err = a.SearchInLabelSubtreeRelational(ctx, query, labelID, true, config)
		}
		if err != nil {
			return err
		}

		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(results)
		}

		printResults(results)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "number of results")
	searchCmd.Flags().Int64("label", 0, "restrict to the subtree of this label id")
	searchCmd.Flags().String("distance", string(model.DistanceCosine), "vector distance: cosine, l2 or inner_product")
	searchCmd.Flags().Bool("no-embed", false, "lexical search only")
	searchCmd.Flags().Bool("json", false, "print results as json")
	rootCmd.AddCommand(searchCmd)
}

func printResults(results []*model.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for i, r := range results {
		title := ""
		if r.Document != nil {
			title = r.Document.Title
		}
		fmt.Printf("%2d. %s %s\n", i+1, bold(title), faint(fmt.Sprintf("(id %d)", r.ID)))

		var details []string
		if r.RRFScore != nil {
			details = append(details, fmt.Sprintf("rrf=%.5f", *r.RRFScore))
		}
		if r.LexicalRank != nil {
			details = append(details, fmt.Sprintf("lexical=#%d", *r.LexicalRank))
		}
		if r.BM25Score != nil {
			details = append(details, fmt.Sprintf("bm25=%.3f", *r.BM25Score))
		}
		if r.SemanticRank != nil {
			details = append(details, fmt.Sprintf("semantic=#%d", *r.SemanticRank))
		}
		if r.VectorDistance != nil {
			details = append(details, fmt.Sprintf("distance=%.4f", *r.VectorDistance))
		}
		fmt.Printf("    %s\n", faint(strings.Join(details, " ")))

		if r.Snippet != nil {
			fmt.Printf("    %s\n", *r.Snippet)
		}
	}
}
