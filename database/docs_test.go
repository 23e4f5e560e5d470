package database

import (
	"context"
	"testing"
	"time"

	"github.com/siherrmann/agesearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsNewDocsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocsDBHandler", func(t *testing.T) {
		docsDbHandler, err := NewDocsDBHandler(database, testDim, true)
		assert.NoError(t, err, "Expected NewDocsDBHandler to not return an error")
		require.NotNil(t, docsDbHandler, "Expected NewDocsDBHandler to return a non-nil instance")
		require.NotNil(t, docsDbHandler.db, "Expected NewDocsDBHandler to have a non-nil database instance")
		assert.Equal(t, testDim, docsDbHandler.embeddingDim, "Expected embedding dimension to be kept")
	})

	t.Run("Invalid call NewDocsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocsDBHandler(nil, testDim, false)
		assert.Error(t, err, "Expected error when creating DocsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewDocsDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewDocsDBHandler(database, 0, false)
		assert.Error(t, err, "Expected error when creating DocsDBHandler with zero dimension")
	})
}

func TestDocsInsert(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)
	ctx := context.Background()

	t.Run("Insert document with embedding", func(t *testing.T) {
		doc := &model.Document{
			Title:     "Test Document",
			Content:   "insert with embedding",
			Metadata:  model.Metadata{"author": "Test Author"},
			Embedding: []float32{0.1, 0.2, 0.3},
		}

		err := docsDbHandler.InsertDocument(ctx, doc)
		assert.NoError(t, err, "Expected InsertDocument to not return an error")
		assert.NotZero(t, doc.ID, "Expected inserted document to have an id")
		assert.NotEmpty(t, doc.RID, "Expected inserted document to have a RID")
		assert.WithinDuration(t, time.Now(), doc.CreatedAt, 5*time.Second, "Expected CreatedAt to be set")
		assert.Equal(t, "Test Author", doc.Metadata["author"], "Expected metadata to round trip")

		docsDbHandler.DeleteDocument(ctx, doc.ID)
	})

	t.Run("Insert document without embedding", func(t *testing.T) {
		doc := &model.Document{Title: "No Embedding", Content: "plain"}

		err := docsDbHandler.InsertDocument(ctx, doc)
		assert.NoError(t, err, "Expected InsertDocument without embedding to not return an error")
		assert.NotZero(t, doc.ID)

		docsDbHandler.DeleteDocument(ctx, doc.ID)
	})

	t.Run("Insert document with wrong dimension", func(t *testing.T) {
		doc := &model.Document{Title: "Wrong", Content: "wrong", Embedding: []float32{1, 2}}

		err := docsDbHandler.InsertDocument(ctx, doc)
		assert.Error(t, err, "Expected error for wrong embedding dimension")
		assert.Contains(t, err.Error(), "expected 3", "Expected error to name the expected dimension")
	})
}

func TestDocsSelect(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)
	ctx := context.Background()

	first := &model.Document{Title: "First", Content: "first select content"}
	second := &model.Document{Title: "Second", Content: "second select content"}
	require.NoError(t, docsDbHandler.InsertDocument(ctx, first))
	require.NoError(t, docsDbHandler.InsertDocument(ctx, second))
	defer docsDbHandler.DeleteDocument(ctx, first.ID)
	defer docsDbHandler.DeleteDocument(ctx, second.ID)

	t.Run("Select documents by ids", func(t *testing.T) {
		docs, err := docsDbHandler.SelectDocumentsByIDs(ctx, []int64{second.ID, first.ID, -1})
		assert.NoError(t, err, "Expected SelectDocumentsByIDs to not return an error")
		require.Len(t, docs, 2, "Expected unknown ids to be skipped")
		assert.Equal(t, first.ID, docs[0].ID, "Expected documents in id order")
		assert.Equal(t, "second select content", docs[1].Content)
	})

	t.Run("Select documents with empty ids", func(t *testing.T) {
		docs, err := docsDbHandler.SelectDocumentsByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, docs, "Expected no documents for empty ids")
	})

	t.Run("Select all documents paged", func(t *testing.T) {
		lastID := first.ID - 1
		docs, err := docsDbHandler.SelectAllDocuments(ctx, &lastID, 1)
		assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
		require.Len(t, docs, 1, "Expected one document per page")
		assert.Equal(t, first.ID, docs[0].ID)

		docs, err = docsDbHandler.SelectAllDocuments(ctx, &first.ID, 1)
		assert.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, second.ID, docs[0].ID, "Expected the page after first to start at second")
	})
}

func TestDocsDelete(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)
	ctx := context.Background()

	doc := &model.Document{Title: "Delete", Content: "to be deleted"}
	require.NoError(t, docsDbHandler.InsertDocument(ctx, doc))

	err := docsDbHandler.DeleteDocument(ctx, doc.ID)
	assert.NoError(t, err, "Expected DeleteDocument to not return an error")

	docs, err := docsDbHandler.SelectDocumentsByIDs(ctx, []int64{doc.ID})
	assert.NoError(t, err)
	assert.Empty(t, docs, "Expected deleted document to be gone")
}

func TestDocsSearchFTS(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)
	ctx := context.Background()

	strong := &model.Document{Title: "Strong", Content: "zeppelin zeppelin zeppelin airship"}
	weak := &model.Document{Title: "Weak", Content: "a zeppelin among many other words about balloons"}
	other := &model.Document{Title: "Other", Content: "submarine"}
	for _, doc := range []*model.Document{strong, weak, other} {
		require.NoError(t, docsDbHandler.InsertDocument(ctx, doc))
		defer docsDbHandler.DeleteDocument(ctx, doc.ID)
	}

	t.Run("Search matching documents", func(t *testing.T) {
		ids, err := docsDbHandler.SelectDocIDsByFTS(ctx, "zeppelin", 10)
		assert.NoError(t, err, "Expected SelectDocIDsByFTS to not return an error")
		assert.Equal(t, []int64{strong.ID, weak.ID}, ids, "Expected ids ranked by full text rank")
	})

	t.Run("Search respects k", func(t *testing.T) {
		ids, err := docsDbHandler.SelectDocIDsByFTS(ctx, "zeppelin", 1)
		assert.NoError(t, err)
		assert.Equal(t, []int64{strong.ID}, ids)
	})

	t.Run("Search without match", func(t *testing.T) {
		ids, err := docsDbHandler.SelectDocIDsByFTS(ctx, "nonexistentterm", 10)
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestDocsSearchVector(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)
	ctx := context.Background()

	near := &model.Document{Title: "Near", Content: "near", Embedding: []float32{1, 0, 0}}
	far := &model.Document{Title: "Far", Content: "far", Embedding: []float32{0, 1, 0}}
	none := &model.Document{Title: "None", Content: "none"}
	for _, doc := range []*model.Document{near, far, none} {
		require.NoError(t, docsDbHandler.InsertDocument(ctx, doc))
		defer docsDbHandler.DeleteDocument(ctx, doc.ID)
	}

	for _, distance := range []model.Distance{model.DistanceCosine, model.DistanceL2, model.DistanceInnerProduct} {
		t.Run("Search by "+string(distance), func(t *testing.T) {
			hits, err := docsDbHandler.SelectDocsByVector(ctx, []float32{0.9, 0.1, 0}, 100, distance)
			assert.NoError(t, err, "Expected SelectDocsByVector to not return an error")

			ids := []int64{}
			for _, hit := range hits {
				require.NotNil(t, hit.Distance, "Expected every hit to carry a distance")
				if hit.ID == near.ID || hit.ID == far.ID || hit.ID == none.ID {
					ids = append(ids, hit.ID)
				}
			}
			assert.Equal(t, []int64{near.ID, far.ID}, ids, "Expected nearest first and documents without embedding skipped")
		})
	}

	t.Run("Search with unsupported distance", func(t *testing.T) {
		_, err := docsDbHandler.SelectDocsByVector(ctx, []float32{1, 0, 0}, 10, "manhattan")
		assert.Error(t, err, "Expected error for unsupported distance")
		assert.Contains(t, err.Error(), "unsupported distance")
	})

	t.Run("Update embedding changes ranking", func(t *testing.T) {
		err := docsDbHandler.UpdateDocumentEmbedding(ctx, none.ID, []float32{0.9, 0.1, 0})
		require.NoError(t, err, "Expected UpdateDocumentEmbedding to not return an error")

		hits, err := docsDbHandler.SelectDocsByVector(ctx, []float32{0.9, 0.1, 0}, 1, model.DistanceL2)
		assert.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, none.ID, hits[0].ID, "Expected the updated document to be nearest")
	})
}

func TestDocsSearchBM25WithoutExtension(t *testing.T) {
	docsDbHandler, _ := initHandlers(t)

	_, err := docsDbHandler.SelectDocsByBM25(context.Background(), "anything", 10)
	assert.Error(t, err, "Expected error when pg_search is not installed")
}
