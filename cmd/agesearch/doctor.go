package main

import (
	"fmt"

	"github.com/siherrmann/agesearch/database"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "List installed extensions and the search capabilities they enable",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := commandContext(cmd)

		extensions, err := database.InstalledExtensions(ctx, db)
		if err != nil {
			return err
		}
		caps, err := database.DetectCapabilities(ctx, db)
		if err != nil {
			return err
		}

		fmt.Println("Installed extensions:")
		for _, name := range extensions {
			fmt.Printf("  - %s\n", name)
		}

		fmt.Println("\nCapabilities:")
		fmt.Printf("  graph (age):       %s\n", status(caps.HasAGE))
		fmt.Printf("  vector (pgvector): %s\n", status(caps.HasVector))
		fmt.Printf("  bm25 (pg_search):  %s\n", status(caps.HasPgSearch))

		if !caps.HasPgSearch {
			fmt.Println("\nLexical ranking falls back to PostgreSQL full text search.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "missing"
}
