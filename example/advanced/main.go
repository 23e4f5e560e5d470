package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/agesearch"
	"github.com/siherrmann/agesearch/core/eval"
	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/core/lexical"
	"github.com/siherrmann/agesearch/core/pipeline"
	"github.com/siherrmann/agesearch/database"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

const sampleContent1 = `Graph databases store data with complex relationships.

They use vertices to represent entities and edges to represent relationships between them.

Apache AGE brings openCypher queries to PostgreSQL.`

const sampleContent2 = `Machine learning is transforming how we process and retrieve information.

Vector embeddings capture the semantic meaning of text and enable similarity search.

Modern retrieval systems fuse lexical and semantic rankings with reciprocal rank fusion.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

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

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	a.SetPipeline(pipeline.NewPipeline(pipeline.ParagraphSplitter(), embedder))

	// The pgvector image has no AGE, so the graph is mirrored in memory.
	// A Neo4j handler can be used the same way.
	if a.Graph == nil {
		a.SetGraph(graph.NewMemoryGraph())
	}

	// BM25 scores and snippets from an in-memory bleve index
	index, err := lexical.NewBleveIndex("")
	if err != nil {
		log.Fatalf("Failed to create bleve index: %v", err)
	}
	a.UseLexicalIndex(index)

	ctx := context.Background()

	// Taxonomy: topics -> databases, topics -> ml
	topics := &model.Label{Slug: "topics", Name: "Topics"}
	mustLabel(ctx, a, topics)
	databases := &model.Label{Slug: "databases", Name: "Databases", ParentID: &topics.ID}
	mustLabel(ctx, a, databases)
	ml := &model.Label{Slug: "ml", Name: "Machine Learning", ParentID: &topics.ID}
	mustLabel(ctx, a, ml)

	doc1Parts, err := a.IngestDocument(ctx, &model.Document{Title: "Graph Databases", Content: sampleContent1})
	if err != nil {
		log.Fatalf("Failed to ingest document 1: %v", err)
	}
	doc2Parts, err := a.IngestDocument(ctx, &model.Document{Title: "Machine Learning", Content: sampleContent2})
	if err != nil {
		log.Fatalf("Failed to ingest document 2: %v", err)
	}

	for _, part := range doc1Parts {
		if err := a.AttachLabel(ctx, part.ID, databases.ID); err != nil {
			log.Fatalf("Failed to attach label: %v", err)
		}
	}
	for _, part := range doc2Parts {
		if err := a.AttachLabel(ctx, part.ID, ml.ID); err != nil {
			log.Fatalf("Failed to attach label: %v", err)
		}
	}
	fmt.Printf("Ingested %d and %d parts\n", len(doc1Parts), len(doc2Parts))

	queryText := "How are relationships stored?"
	config := model.DefaultSearchConfig()
	config.Limit = 3

	// 1. Hybrid search
	fmt.Println("\n=== Hybrid search ===")
	results, err := a.Search(ctx, queryText, config)
	if err != nil {
		log.Fatalf("Hybrid search failed: %v", err)
	}
	printResults(results)

	// 2. Relational label subtree
	fmt.Println("\n=== Search in label subtree (relational) ===")
	results, err = a.SearchInLabelSubtreeRelational(ctx, "similarity search", ml.ID, true, config)
	if err != nil {
		log.Fatalf("Relational subtree search failed: %v", err)
	}
	printResults(results)

	// 3. Graph label subtree
	fmt.Println("\n=== Search in label subtree (graph) ===")
	results, err = a.SearchInLabelSubtree(ctx, queryText, topics.ID, model.DefaultSubtreeConfig(), config)
	if err != nil {
		log.Fatalf("Graph subtree search failed: %v", err)
	}
	printResults(results)

	// 4. Expansion along RELATED_TO from the first part
	fmt.Println("\n=== Expanded search ===")
	expand := model.DefaultExpandQuery([]int64{doc1Parts[0].ID})
	expand.Hops = 2
	results, err = a.SearchExpanded(ctx, queryText, expand, config)
	if err != nil {
		log.Fatalf("Expanded search failed: %v", err)
	}
	printResults(results)

	// 5. Communities
	groups, err := a.Communities(ctx, model.DefaultEdgeQuery(model.VertexLabelDoc, model.EdgeTypeRelatedTo))
	if err != nil {
		log.Fatalf("Communities failed: %v", err)
	}
	fmt.Printf("\nDocument communities: %v\n", groups)

	labelGroups, err := a.LabelCommunities(ctx, 100000)
	if err != nil {
		log.Fatalf("Label communities failed: %v", err)
	}
	fmt.Printf("Label communities: %v\n", labelGroups)

	// 6. Switch the vector index
	err = a.ChangeIndexType(ctx, database.IndexTypeIVFFlat, model.DistanceCosine, map[string]interface{}{"lists": 10})
	if err != nil {
		log.Printf("Warning: Index change failed (this is okay for small datasets): %v", err)
	}

	// 7. Evaluate
	cases := []eval.Case{
		{Name: "relationships", Query: queryText, RelevantIDs: []int64{doc1Parts[1].ID}},
		{Name: "embeddings", Query: "semantic meaning of text", LabelID: &ml.ID, RelevantIDs: []int64{doc2Parts[1].ID}},
	}
	report, err := a.Evaluate(ctx, cases, eval.Options{K: 3, Benchmark: true}, config)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	fmt.Printf("\nP@%d %.3f  R@%d %.3f  MRR %.3f  nDCG %.3f  p50 %.1fms\n",
		report.K, report.Precision, report.K, report.Recall, report.MRR, report.NDCG, *report.P50Ms)
}

func mustLabel(ctx context.Context, a *agesearch.AgeSearch, label *model.Label) {
	if err := a.InsertLabel(ctx, label); err != nil {
		log.Fatalf("Failed to insert label %s: %v", label.Slug, err)
	}
}

func printResults(results []*model.SearchResult) {
	for i, result := range results {
		fmt.Printf("%d. [%d] rrf=%.4f", i+1, result.ID, *result.RRFScore)
		if result.BM25Score != nil {
			fmt.Printf(" bm25=%.3f", *result.BM25Score)
		}
		if result.Document != nil {
			fmt.Printf(" %s", result.Document.Title)
		}
		fmt.Println()
		if result.Snippet != nil {
			fmt.Printf("   %s\n", *result.Snippet)
		}
	}
}
