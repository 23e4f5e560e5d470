package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/agesearch"
	"github.com/siherrmann/agesearch/core/pipeline"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

const sampleContent = `This is a sample document about graph databases.

Graph databases are designed to store and query data with complex relationships.
They use nodes to represent entities and edges to represent relationships between them.

PostgreSQL with extensions like Apache AGE and pgvector can be used to build powerful graph-based systems.
AGE adds openCypher queries over labelled property graphs, while pgvector enables vector similarity search.

Combining these features allows for hybrid retrieval strategies that fuse lexical ranking,
semantic similarity and graph structure for more sophisticated information retrieval.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	a, err := agesearch.NewAgeSearch(dbConfig, model.DefaultGraphConfig(), pipeline.DefaultDimension)
	if err != nil {
		log.Fatalf("Failed to create agesearch: %v", err)
	}
	defer a.Close()

	// Set up the default pipeline (semantic splitting + embeddings)
	if err := a.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	ctx := context.Background()

	doc := &model.Document{
		Title:   "Introduction to Graph Databases",
		Content: sampleContent,
		Metadata: model.Metadata{
			"author": "Example Author",
			"topic":  "graph databases",
		},
	}

	fmt.Println("Ingesting document...")
	parts, err := a.IngestDocument(ctx, doc)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Inserted %d parts\n", len(parts))

	queryText := "What are graph databases?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultSearchConfig()
	config.Limit = 3

	results, err := a.Search(ctx, queryText, config)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n%d. RRF score: %.4f\n", i+1, *result.RRFScore)
		if result.LexicalRank != nil {
			fmt.Printf("   Lexical rank: %d\n", *result.LexicalRank)
		}
		if result.SemanticRank != nil {
			fmt.Printf("   Semantic rank: %d (distance %.4f)\n", *result.SemanticRank, *result.VectorDistance)
		}
		if result.Document != nil {
			fmt.Printf("   Title: %s\n", result.Document.Title)
			fmt.Printf("   Content: %s\n", truncate(result.Document.Content, 100))
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
