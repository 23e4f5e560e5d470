package main

import (
	"fmt"

	"github.com/siherrmann/agesearch/database"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create extensions, the graph and the tables",
	Long: `Create the vector extension, optionally age and pg_search, then the docs
and labels tables. The AGE graph is created when age is installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withAGE, _ := cmd.Flags().GetBool("age")
		withBM25, _ := cmd.Flags().GetBool("bm25")

		db, err := openDatabase()
		if err != nil {
			return err
		}

		extensions := []string{database.ExtensionVector}
		if withAGE {
			extensions = append(extensions, database.ExtensionAGE)
		}
		if withBM25 {
			extensions = append(extensions, database.ExtensionPgSearch)
		}

		err = database.InitExtensions(commandContext(cmd), db, extensions...)
		db.Close()
		if err != nil {
			return err
		}

		a, err := openAgeSearch()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println("Initialized tables docs, labels and doc_labels")
		if a.Graph != nil {
			fmt.Printf("Initialized graph %s\n", graphConfig().GraphName)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("age", true, "create the age extension")
	initCmd.Flags().Bool("bm25", false, "create the pg_search extension")
	rootCmd.AddCommand(initCmd)
}
