package main

import (
	"fmt"

	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
)

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Print the connected components of a vertex label",
	Long: `Print the connected components of the vertices of --label joined by
--edge. With --relational the label taxonomy is read from the labels table
instead of the graph.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		edge, _ := cmd.Flags().GetString("edge")
		direction, _ := cmd.Flags().GetString("direction")
		rowCap, _ := cmd.Flags().GetInt("row-cap")
		relational, _ := cmd.Flags().GetBool("relational")

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := commandContext(cmd)

		var groups [][]int64
		if relational {
			groups, err = a.LabelCommunities(ctx, rowCap)
		} else {
			groups, err = a.Communities(ctx, model.EdgeQuery{
				Label:     label,
				EdgeType:  edge,
				Direction: model.Direction(direction),
				RowCap:    rowCap,
			})
		}
		if err != nil {
			return err
		}

		fmt.Printf("%d communities\n", len(groups))
		for i, group := range groups {
			fmt.Printf("%4d (%d): %v\n", i+1, len(group), group)
		}
		return nil
	},
}

func init() {
	communitiesCmd.Flags().String("label", model.VertexLabelDoc, "vertex label")
	communitiesCmd.Flags().String("edge", model.EdgeTypeRelatedTo, "edge type")
	communitiesCmd.Flags().String("direction", string(model.DirectionBoth), "edge direction: out, in or both")
	communitiesCmd.Flags().Int("row-cap", 200000, "maximum number of edges read")
	communitiesCmd.Flags().Bool("relational", false, "use the labels table instead of the graph")
	rootCmd.AddCommand(communitiesCmd)
}
