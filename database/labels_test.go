package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/siherrmann/agesearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertTree inserts root -> child -> grandchild and a second child of root.
func insertTree(t *testing.T, h *LabelsDBHandler, prefix string) (root, child, grandchild, sibling *model.Label) {
	ctx := context.Background()

	root = &model.Label{Slug: prefix + "-root", Name: "Root"}
	require.NoError(t, h.InsertLabel(ctx, root))
	child = &model.Label{Slug: prefix + "-child", Name: "Child", ParentID: &root.ID}
	require.NoError(t, h.InsertLabel(ctx, child))
	grandchild = &model.Label{Slug: prefix + "-grandchild", Name: "Grandchild", ParentID: &child.ID}
	require.NoError(t, h.InsertLabel(ctx, grandchild))
	sibling = &model.Label{Slug: prefix + "-sibling", Name: "Sibling", ParentID: &root.ID}
	require.NoError(t, h.InsertLabel(ctx, sibling))

	t.Cleanup(func() {
		for _, label := range []*model.Label{grandchild, child, sibling, root} {
			h.DeleteLabel(ctx, label.ID)
		}
	})
	return root, child, grandchild, sibling
}

func TestLabelsNewLabelsDBHandler(t *testing.T) {
	database := initDB(t)

	_, err := NewDocsDBHandler(database, testDim, true)
	require.NoError(t, err, "Expected NewDocsDBHandler to not return an error")

	t.Run("Valid call NewLabelsDBHandler", func(t *testing.T) {
		labelsDbHandler, err := NewLabelsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewLabelsDBHandler to not return an error")
		require.NotNil(t, labelsDbHandler, "Expected NewLabelsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewLabelsDBHandler with nil database", func(t *testing.T) {
		_, err := NewLabelsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating LabelsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestLabelsInsertAndSelect(t *testing.T) {
	_, labelsDbHandler := initHandlers(t)
	ctx := context.Background()

	root, child, _, _ := insertTree(t, labelsDbHandler, "select")

	t.Run("Inserted labels carry ids", func(t *testing.T) {
		assert.NotZero(t, root.ID)
		assert.Nil(t, root.ParentID, "Expected root to have no parent")
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)
		assert.WithinDuration(t, time.Now(), child.CreatedAt, 5*time.Second)
	})

	t.Run("Select label", func(t *testing.T) {
		label, err := labelsDbHandler.SelectLabel(ctx, child.ID)
		assert.NoError(t, err, "Expected SelectLabel to not return an error")
		assert.Equal(t, "select-child", label.Slug)
		require.NotNil(t, label.ParentID)
		assert.Equal(t, root.ID, *label.ParentID)
	})

	t.Run("Select unknown label", func(t *testing.T) {
		_, err := labelsDbHandler.SelectLabel(ctx, -1)
		assert.Error(t, err, "Expected error for unknown label")
	})

	t.Run("Select all labels", func(t *testing.T) {
		labels, err := labelsDbHandler.SelectAllLabels(ctx)
		assert.NoError(t, err)
		slugs := []string{}
		for _, label := range labels {
			slugs = append(slugs, label.Slug)
		}
		assert.Subset(t, slugs, []string{"select-root", "select-child", "select-grandchild", "select-sibling"})
	})

	t.Run("Duplicate slug", func(t *testing.T) {
		err := labelsDbHandler.InsertLabel(ctx, &model.Label{Slug: "select-root"})
		assert.Error(t, err, "Expected error for duplicate slug")
	})
}

func TestLabelsDescendants(t *testing.T) {
	_, labelsDbHandler := initHandlers(t)
	ctx := context.Background()

	root, child, grandchild, sibling := insertTree(t, labelsDbHandler, "closure")

	testCases := []struct {
		name     string
		rootID   int64
		expected []int64
	}{
		{"From root", root.ID, []int64{root.ID, child.ID, grandchild.ID, sibling.ID}},
		{"From child", child.ID, []int64{child.ID, grandchild.ID}},
		{"From leaf", grandchild.ID, []int64{grandchild.ID}},
		{"Unknown root", -1, []int64{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := labelsDbHandler.SelectDescendantLabelIDs(ctx, tc.rootID)
			assert.NoError(t, err, "Expected SelectDescendantLabelIDs to not return an error")
			assert.Equal(t, tc.expected, ids)
		})
	}

	t.Run("Label edges", func(t *testing.T) {
		edges, err := labelsDbHandler.SelectLabelEdges(ctx, 100000)
		assert.NoError(t, err)
		assert.Contains(t, edges, model.Edge{Source: root.ID, Target: child.ID})
		assert.Contains(t, edges, model.Edge{Source: child.ID, Target: grandchild.ID})
		assert.Contains(t, edges, model.Edge{Source: root.ID, Target: sibling.ID})
	})

	t.Run("Deleting a parent detaches its children", func(t *testing.T) {
		leaf := &model.Label{Slug: "closure-leaf", ParentID: &grandchild.ID}
		require.NoError(t, labelsDbHandler.InsertLabel(ctx, leaf))
		defer labelsDbHandler.DeleteLabel(ctx, leaf.ID)

		extra := &model.Label{Slug: "closure-extra", ParentID: &leaf.ID}
		require.NoError(t, labelsDbHandler.InsertLabel(ctx, extra))
		defer labelsDbHandler.DeleteLabel(ctx, extra.ID)

		require.NoError(t, labelsDbHandler.DeleteLabel(ctx, leaf.ID))

		label, err := labelsDbHandler.SelectLabel(ctx, extra.ID)
		require.NoError(t, err)
		assert.Nil(t, label.ParentID, "Expected child of deleted label to become a root")
	})
}

func TestLabelsDocAssociation(t *testing.T) {
	docsDbHandler, labelsDbHandler := initHandlers(t)
	ctx := context.Background()

	root, child, grandchild, _ := insertTree(t, labelsDbHandler, "assoc")

	docs := make([]*model.Document, 3)
	for i := range docs {
		docs[i] = &model.Document{Title: fmt.Sprintf("Doc %d", i), Content: "association"}
		require.NoError(t, docsDbHandler.InsertDocument(ctx, docs[i]))
		defer docsDbHandler.DeleteDocument(ctx, docs[i].ID)
	}

	require.NoError(t, labelsDbHandler.InsertDocLabel(ctx, docs[0].ID, root.ID))
	require.NoError(t, labelsDbHandler.InsertDocLabel(ctx, docs[1].ID, grandchild.ID))
	require.NoError(t, labelsDbHandler.InsertDocLabel(ctx, docs[1].ID, child.ID))
	require.NoError(t, labelsDbHandler.InsertDocLabel(ctx, docs[2].ID, child.ID))

	t.Run("Linking twice is a no-op", func(t *testing.T) {
		err := labelsDbHandler.InsertDocLabel(ctx, docs[0].ID, root.ID)
		assert.NoError(t, err, "Expected duplicate link to be ignored")
	})

	t.Run("Doc ids for labels are distinct and ordered", func(t *testing.T) {
		ids, err := labelsDbHandler.SelectDocIDsForLabels(ctx, []int64{grandchild.ID, child.ID})
		assert.NoError(t, err, "Expected SelectDocIDsForLabels to not return an error")
		assert.Equal(t, []int64{docs[1].ID, docs[2].ID}, ids)
	})

	t.Run("Doc ids for no labels", func(t *testing.T) {
		ids, err := labelsDbHandler.SelectDocIDsForLabels(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Unlink document", func(t *testing.T) {
		require.NoError(t, labelsDbHandler.DeleteDocLabel(ctx, docs[2].ID, child.ID))

		ids, err := labelsDbHandler.SelectDocIDsForLabels(ctx, []int64{child.ID})
		assert.NoError(t, err)
		assert.Equal(t, []int64{docs[1].ID}, ids)
	})

	t.Run("Deleting a document removes its links", func(t *testing.T) {
		require.NoError(t, docsDbHandler.DeleteDocument(ctx, docs[0].ID))

		ids, err := labelsDbHandler.SelectDocIDsForLabels(ctx, []int64{root.ID})
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})
}
