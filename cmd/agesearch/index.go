package main

import (
	"fmt"

	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [hnsw|ivfflat]",
	Short: "Switch the vector index and create the BM25 index when available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		distance, _ := cmd.Flags().GetString("distance")
		m, _ := cmd.Flags().GetInt("m")
		efConstruction, _ := cmd.Flags().GetInt("ef-construction")
		lists, _ := cmd.Flags().GetInt("lists")

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := commandContext(cmd)

		params := map[string]interface{}{
			"m":               m,
			"ef_construction": efConstruction,
			"lists":           lists,
		}
		err = a.ChangeIndexType(ctx, args[0], model.Distance(distance), params)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s index on docs.embedding\n", args[0])

		if a.Capabilities.HasPgSearch {
			err = a.CreateBM25Index(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Created bm25 index on docs")
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().String("distance", string(model.DistanceCosine), "vector distance: cosine, l2 or inner_product")
	indexCmd.Flags().Int("m", 16, "hnsw: max connections per layer")
	indexCmd.Flags().Int("ef-construction", 64, "hnsw: candidate list size while building")
	indexCmd.Flags().Int("lists", 100, "ivfflat: number of lists")
	rootCmd.AddCommand(indexCmd)
}
