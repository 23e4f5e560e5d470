package agesearch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/agesearch/core/community"
	"github.com/siherrmann/agesearch/core/eval"
	"github.com/siherrmann/agesearch/core/graph"
	"github.com/siherrmann/agesearch/core/lexical"
	"github.com/siherrmann/agesearch/core/pipeline"
	"github.com/siherrmann/agesearch/core/retrieval"
	"github.com/siherrmann/agesearch/database"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
	loadSql "github.com/siherrmann/agesearch/sql"
)

// AgeSearch bundles the relational store, the optional graph mirror and the retrieval engine.
type AgeSearch struct {
	DB           *helper.Database
	Docs         *database.DocsDBHandler
	Labels       *database.LabelsDBHandler
	Graph        graph.Store // nil without a graph backend
	Capabilities model.Capabilities
	Pipeline     *pipeline.Pipeline  // Optional splitting and embedding pipeline
	Lexical      *lexical.BleveIndex // Optional in-process scoring lexical index
	Engine       *retrieval.Engine
	// Logging
	log *slog.Logger
}

// NewAgeSearch connects to the database, detects the installed extensions and initializes all handlers.
// The AGE graph is created and mirrored when the age extension is installed.
// BM25 ranking through pg_search is used when that extension is installed.
func NewAgeSearch(config *helper.DatabaseConfiguration, graphConfig model.GraphConfig, embeddingDim int) (*AgeSearch, error) {
	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)

	db, err := helper.NewDatabase("agesearch", config, logger)
	if err != nil {
		return nil, err
	}

	err = loadSql.Init(db.Instance)
	if err != nil {
		db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	caps, err := database.DetectCapabilities(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, helper.NewError("detect capabilities", err)
	}

	// docs first, doc_labels references it
	docs, err := database.NewDocsDBHandler(db, embeddingDim, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create docs handler", err)
	}

	labels, err := database.NewLabelsDBHandler(db, false)
	if err != nil {
		db.Close()
		return nil, helper.NewError("create labels handler", err)
	}

	a := &AgeSearch{
		DB:           db,
		Docs:         docs,
		Labels:       labels,
		Capabilities: caps,
		log:          logger,
	}

	if caps.HasAGE {
		graphDbHandler, err := database.NewGraphDBHandler(db, graphConfig)
		if err != nil {
			db.Close()
			return nil, helper.NewError("create graph handler", err)
		}
		a.Graph = graphDbHandler
	}

	a.buildEngine()

	return a, nil
}

// buildEngine fixes the engine capabilities from the current collaborators.
// The bleve index wins over pg_search as the scoring lexical source.
func (a *AgeSearch) buildEngine() {
	sources := retrieval.Sources{
		Plain:    a.Docs,
		Semantic: a.Docs,
		Hydrator: a.Docs,
	}
	if a.Lexical != nil {
		sources.Scoring = a.Lexical
	} else if a.Capabilities.HasPgSearch {
		sources.Scoring = a.Docs
	}

	a.Engine = retrieval.NewEngine(sources)
}

// Close closes the database connection, the lexical index and a graph backend that holds its own connection.
func (a *AgeSearch) Close() error {
	if a.Lexical != nil {
		if err := a.Lexical.Close(); err != nil {
			return helper.NewError("close lexical index", err)
		}
	}
	if closer, ok := a.Graph.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(context.Background()); err != nil {
			return helper.NewError("close graph", err)
		}
	}
	if a.DB != nil && a.DB.Instance != nil {
		return a.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the pipeline used to split documents and embed documents and queries.
func (a *AgeSearch) SetPipeline(pipeline *pipeline.Pipeline) {
	a.Pipeline = pipeline
}

// UseDefaultPipeline sets up semantic splitting with 500 char sections and a 0.7 similarity threshold,
// and embeddings from the all-MiniLM-L6-v2 model (384 dimensions).
func (a *AgeSearch) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	a.Pipeline = pipeline.NewPipeline(pipeline.SemanticSplitter(embedder, 500, 0.7), embedder)
	return nil
}

// SetGraph replaces the graph backend, for example with a Neo4j handler.
// A nil store disables graph mirroring and graph searches.
func (a *AgeSearch) SetGraph(store graph.Store) {
	a.Graph = store
}

// UseLexicalIndex makes index the scoring lexical source and keeps it in sync on the write path.
func (a *AgeSearch) UseLexicalIndex(index *lexical.BleveIndex) {
	a.Lexical = index
	a.buildEngine()
}

// embed returns the query embedding, or nil when no embedder is set.
func (a *AgeSearch) embed(text string) ([]float32, error) {
	if a.Pipeline == nil || a.Pipeline.Embedder == nil {
		return nil, nil
	}

	embedding, err := a.Pipeline.Embedder(text)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}
	return embedding, nil
}

// InsertDocument stores doc, indexes it lexically and mirrors it as a Doc vertex.
// Without an embedding the content is embedded when an embedder is set.
func (a *AgeSearch) InsertDocument(ctx context.Context, doc *model.Document) error {
	if len(doc.Embedding) == 0 {
		embedding, err := a.embed(doc.Content)
		if err != nil {
			return err
		}
		doc.Embedding = embedding
	}

	err := a.Docs.InsertDocument(ctx, doc)
	if err != nil {
		return helper.NewError("insert document", err)
	}

	if a.Lexical != nil {
		err = a.Lexical.IndexDocument(ctx, doc)
		if err != nil {
			return helper.NewError("index document", err)
		}
	}

	if a.Graph != nil {
		err = a.Graph.UpsertVertex(ctx, model.VertexLabelDoc, doc.ID, model.Metadata{"title": doc.Title})
		if err != nil {
			return helper.NewError("upsert doc vertex", err)
		}
	}

	a.log.Info("Inserted document", slog.Int64("id", doc.ID), slog.String("title", doc.Title))

	return nil
}

// IngestDocument splits doc with the pipeline and inserts every part.
// Consecutive parts are linked with RELATED_TO edges when a graph is present.
// Returns the inserted parts.
func (a *AgeSearch) IngestDocument(ctx context.Context, doc *model.Document) ([]*model.Document, error) {
	if a.Pipeline == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if doc.Content == "" {
		return nil, helper.NewError("ingest document", fmt.Errorf("document content is empty"))
	}

	parts, err := a.Pipeline.Process(doc)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	for i, part := range parts {
		if err := a.InsertDocument(ctx, part); err != nil {
			return parts[:i], helper.NewError(fmt.Sprintf("insert part %d", i), err)
		}
		if a.Graph != nil && i > 0 {
			err := a.Graph.MergeEdge(ctx, model.VertexLabelDoc, parts[i-1].ID, model.EdgeTypeRelatedTo, model.VertexLabelDoc, part.ID)
			if err != nil {
				return parts[:i+1], helper.NewError("relate parts", err)
			}
		}
	}

	a.log.Info("Ingested document", slog.String("title", doc.Title), slog.Int("parts", len(parts)))

	return parts, nil
}

// DeleteDocument removes a document from every store.
func (a *AgeSearch) DeleteDocument(ctx context.Context, id int64) error {
	err := a.Docs.DeleteDocument(ctx, id)
	if err != nil {
		return helper.NewError("delete document", err)
	}

	if a.Lexical != nil {
		err = a.Lexical.DeleteDocument(ctx, id)
		if err != nil {
			return helper.NewError("unindex document", err)
		}
	}

	if a.Graph != nil {
		err = a.Graph.DeleteVertex(ctx, model.VertexLabelDoc, id)
		if err != nil {
			return helper.NewError("delete doc vertex", err)
		}
	}

	return nil
}

// InsertLabel stores label and mirrors it as a Label vertex linked to its parent with PARENT_OF.
func (a *AgeSearch) InsertLabel(ctx context.Context, label *model.Label) error {
	err := a.Labels.InsertLabel(ctx, label)
	if err != nil {
		return helper.NewError("insert label", err)
	}

	if a.Graph == nil {
		return nil
	}

	err = a.Graph.UpsertVertex(ctx, model.VertexLabelLabel, label.ID, model.Metadata{"slug": label.Slug, "name": label.Name})
	if err != nil {
		return helper.NewError("upsert label vertex", err)
	}

	if label.ParentID != nil {
		err = a.Graph.MergeEdge(ctx, model.VertexLabelLabel, *label.ParentID, model.EdgeTypeParentOf, model.VertexLabelLabel, label.ID)
		if err != nil {
			return helper.NewError("link parent label", err)
		}
	}

	return nil
}

// AttachLabel links a document to a label, mirrored as a HAS_LABEL edge.
func (a *AgeSearch) AttachLabel(ctx context.Context, docID int64, labelID int64) error {
	err := a.Labels.InsertDocLabel(ctx, docID, labelID)
	if err != nil {
		return helper.NewError("attach label", err)
	}

	if a.Graph != nil {
		err = a.Graph.MergeEdge(ctx, model.VertexLabelDoc, docID, model.EdgeTypeHasLabel, model.VertexLabelLabel, labelID)
		if err != nil {
			return helper.NewError("link doc label", err)
		}
	}

	return nil
}

// RelateDocuments adds a RELATED_TO edge used by SearchExpanded. It requires a graph.
func (a *AgeSearch) RelateDocuments(ctx context.Context, fromID int64, toID int64) error {
	if a.Graph == nil {
		return helper.NewError("relate documents", fmt.Errorf("graph not available"))
	}

	err := a.Graph.MergeEdge(ctx, model.VertexLabelDoc, fromID, model.EdgeTypeRelatedTo, model.VertexLabelDoc, toID)
	if err != nil {
		return helper.NewError("relate documents", err)
	}
	return nil
}

// Search performs an unconstrained hybrid search.
// Source errors are returned unchanged by every search method.
func (a *AgeSearch) Search(ctx context.Context, text string, config model.SearchConfig) ([]*model.SearchResult, error) {
	embedding, err := a.embed(text)
	if err != nil {
		return nil, err
	}

	results, err := retrieval.NewHybridStrategy(a.Engine).Retrieve(ctx, retrieval.Query{Text: text, Embedding: embedding, Config: config})
	if err != nil {
		return nil, err
	}

	a.log.Debug("Hybrid search", slog.String("query", text), slog.Int("results", len(results)))

	return results, nil
}

// SearchConstrained performs a hybrid search restricted to docIDs.
func (a *AgeSearch) SearchConstrained(ctx context.Context, text string, docIDs []int64, config model.SearchConfig) ([]*model.SearchResult, error) {
	embedding, err := a.embed(text)
	if err != nil {
		return nil, err
	}

	results, err := retrieval.NewConstrainedStrategy(a.Engine, docIDs).Retrieve(ctx, retrieval.Query{Text: text, Embedding: embedding, Config: config})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchInLabelSubtree restricts a hybrid search to documents labelled within the graph subtree of rootID.
func (a *AgeSearch) SearchInLabelSubtree(ctx context.Context, text string, rootID int64, subtree model.SubtreeConfig, config model.SearchConfig) ([]*model.SearchResult, error) {
	if a.Graph == nil {
		return nil, helper.NewError("label subtree search", fmt.Errorf("graph not available"))
	}

	embedding, err := a.embed(text)
	if err != nil {
		return nil, err
	}

	results, err := a.Engine.InLabelSubtree(ctx, text, embedding, a.Graph, a.Graph, rootID, subtree, config)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchInLabelSubtreeRelational restricts a hybrid search to documents labelled within the relational subtree of rootID.
func (a *AgeSearch) SearchInLabelSubtreeRelational(ctx context.Context, text string, rootID int64, includeSelf bool, config model.SearchConfig) ([]*model.SearchResult, error) {
	embedding, err := a.embed(text)
	if err != nil {
		return nil, err
	}

	results, err := a.Engine.InLabelSubtreeRelational(ctx, text, embedding, a.Labels, a.Labels, rootID, includeSelf, config)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchExpanded restricts a hybrid search to the seed documents and their graph neighbourhood.
func (a *AgeSearch) SearchExpanded(ctx context.Context, text string, expand model.ExpandQuery, config model.SearchConfig) ([]*model.SearchResult, error) {
	if a.Graph == nil {
		return nil, helper.NewError("expanded search", fmt.Errorf("graph not available"))
	}

	embedding, err := a.embed(text)
	if err != nil {
		return nil, err
	}

	results, err := retrieval.NewExpandedStrategy(a.Engine, a.Graph, expand).Retrieve(ctx, retrieval.Query{Text: text, Embedding: embedding, Config: config})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Communities groups the vertices of query.Label connected by query.EdgeType.
// Vertices without edges are not part of the result.
func (a *AgeSearch) Communities(ctx context.Context, query model.EdgeQuery) ([][]int64, error) {
	if a.Graph == nil {
		return nil, helper.NewError("communities", fmt.Errorf("graph not available"))
	}

	groups, err := community.GraphConnectedComponents(ctx, a.Graph, query, nil)
	if err != nil {
		return nil, helper.NewError("communities", err)
	}
	return groups, nil
}

// LabelCommunities groups all labels into the trees of the relational taxonomy.
func (a *AgeSearch) LabelCommunities(ctx context.Context, rowCap int) ([][]int64, error) {
	labels, err := a.Labels.SelectAllLabels(ctx)
	if err != nil {
		return nil, helper.NewError("label communities", err)
	}

	edges, err := a.Labels.SelectLabelEdges(ctx, rowCap)
	if err != nil {
		return nil, helper.NewError("label communities", err)
	}

	nodes := make([]int64, 0, len(labels))
	for _, label := range labels {
		nodes = append(nodes, label.ID)
	}

	return community.ConnectedComponents(nodes, edges), nil
}

// Evaluate runs every case through Search, or through SearchInLabelSubtreeRelational
// when the case names a label, and aggregates the ranking metrics.
func (a *AgeSearch) Evaluate(ctx context.Context, cases []eval.Case, opts eval.Options, config model.SearchConfig) (*eval.Report, error) {
	search := func(ctx context.Context, c eval.Case) ([]int64, error) {
		var results []*model.SearchResult
		var err error
		if c.LabelID != nil {
			results, err = a.SearchInLabelSubtreeRelational(ctx, c.Query, *c.LabelID, true, config)
		} else {
			results, err = a.Search(ctx, c.Query, config)
		}
		if err != nil {
			return nil, err
		}

		ids := make([]int64, len(results))
		for i, r := range results {
			ids[i] = r.ID
		}
		return ids, nil
	}

	report, err := eval.Evaluate(ctx, cases, search, opts)
	if err != nil {
		return nil, err
	}

	a.log.Info("Evaluated", slog.Int("cases", report.N), slog.Float64("mrr", report.MRR), slog.Float64("ndcg", report.NDCG))

	return report, nil
}

// ChangeIndexType replaces the vector index on the docs table
func (a *AgeSearch) ChangeIndexType(ctx context.Context, indexType string, distance model.Distance, params map[string]interface{}) error {
	return a.Docs.ChangeIndexType(ctx, indexType, distance, params)
}

// CreateBM25Index creates the pg_search index. It requires the pg_search extension.
func (a *AgeSearch) CreateBM25Index(ctx context.Context) error {
	if !a.Capabilities.HasPgSearch {
		return helper.NewError("create bm25 index", fmt.Errorf("pg_search not installed"))
	}
	return a.Docs.CreateBM25Index(ctx)
}
