package main

import (
	"fmt"

	"github.com/siherrmann/agesearch/core/pipeline"
	"github.com/siherrmann/agesearch/model"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Split, embed and store documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		split, _ := cmd.Flags().GetString("split")
		labelID, _ := cmd.Flags().GetInt64("label")
		noEmbed, _ := cmd.Flags().GetBool("no-embed")

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		if split == "semantic" && !noEmbed {
			err = a.UseDefaultPipeline()
		} else {
			var splitter pipeline.SplitFunc
			splitter, err = splitterByName(split)
			if err == nil {
				err = useEmbedder(cmd, a, splitter)
			}
		}
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		for _, path := range args {
			doc, err := model.NewDocumentFromFile(path, nil)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			parts, err := a.IngestDocument(ctx, doc)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}

			if labelID != 0 {
				for _, part := range parts {
					err = a.AttachLabel(ctx, part.ID, labelID)
					if err != nil {
						return err
					}
				}
			}

			fmt.Printf("%s: %d documents\n", path, len(parts))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("split", "paragraph", "splitter: none, paragraph, sentence or semantic")
	ingestCmd.Flags().Int64("label", 0, "attach every stored document to this label id")
	ingestCmd.Flags().Bool("no-embed", false, "store without embeddings")
	rootCmd.AddCommand(ingestCmd)
}

func splitterByName(name string) (pipeline.SplitFunc, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "paragraph":
		return pipeline.ParagraphSplitter(), nil
	case "sentence":
		return pipeline.SentenceSplitter(5), nil
	case "semantic":
		return nil, fmt.Errorf("semantic splitting needs embeddings")
	}
	return nil, fmt.Errorf("unknown splitter %q", name)
}
