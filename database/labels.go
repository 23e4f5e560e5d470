package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
	loadSql "github.com/siherrmann/agesearch/sql"
)

// LabelsDBHandlerFunctions defines the interface for Labels database operations.
type LabelsDBHandlerFunctions interface {
	InsertLabel(ctx context.Context, label *model.Label) error
	SelectLabel(ctx context.Context, id int64) (*model.Label, error)
	SelectAllLabels(ctx context.Context) ([]*model.Label, error)
	DeleteLabel(ctx context.Context, id int64) error
	InsertDocLabel(ctx context.Context, docID int64, labelID int64) error
	DeleteDocLabel(ctx context.Context, docID int64, labelID int64) error
	SelectDescendantLabelIDs(ctx context.Context, rootID int64) ([]int64, error)
	SelectDocIDsForLabels(ctx context.Context, labelIDs []int64) ([]int64, error)
	SelectLabelEdges(ctx context.Context, limit int) ([]model.Edge, error)
}

// LabelsDBHandler handles the label taxonomy and the doc_labels association.
type LabelsDBHandler struct {
	db *helper.Database
}

// NewLabelsDBHandler creates a new labels database handler.
// The docs table must exist since doc_labels references it.
func NewLabelsDBHandler(db *helper.Database, force bool) (*LabelsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	labelsDbHandler := &LabelsDBHandler{
		db: db,
	}

	err := loadSql.LoadLabelsSql(labelsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load labels sql", err)
	}

	err = labelsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized LabelsDBHandler")

	return labelsDbHandler, nil
}

// CreateTable creates the 'labels' and 'doc_labels' tables.
func (h *LabelsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_labels();`)
	if err != nil {
		return helper.NewError("init labels", err)
	}

	h.db.Logger.Info("Checked/created tables labels and doc_labels")

	return nil
}

// InsertLabel inserts a new label. The slug must be unique.
func (h *LabelsDBHandler) InsertLabel(ctx context.Context, label *model.Label) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_label($1, $2, $3)`,
		label.Slug,
		label.Name,
		label.ParentID,
	)

	err := scanLabel(row, label)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectLabel returns a label by id
func (h *LabelsDBHandler) SelectLabel(ctx context.Context, id int64) (*model.Label, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_label($1)`, id)

	label := &model.Label{}
	err := scanLabel(row, label)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return label, nil
}

// SelectAllLabels returns every label in id order.
func (h *LabelsDBHandler) SelectAllLabels(ctx context.Context) ([]*model.Label, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_labels()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	labels := []*model.Label{}
	for rows.Next() {
		label := &model.Label{}
		err := scanLabel(rows, label)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		labels = append(labels, label)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return labels, nil
}

// DeleteLabel deletes a label. Children are detached, doc links removed.
func (h *LabelsDBHandler) DeleteLabel(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_label($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// InsertDocLabel links a document to a label. Existing links are kept.
func (h *LabelsDBHandler) InsertDocLabel(ctx context.Context, docID int64, labelID int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT insert_doc_label($1, $2)`, docID, labelID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteDocLabel removes the link between a document and a label.
func (h *LabelsDBHandler) DeleteDocLabel(ctx context.Context, docID int64, labelID int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_doc_label($1, $2)`, docID, labelID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectDescendantLabelIDs returns rootID and all of its descendants in ascending order.
// An unknown root yields an empty list.
func (h *LabelsDBHandler) SelectDescendantLabelIDs(ctx context.Context, rootID int64) ([]int64, error) {
	return h.selectIDs(ctx, `SELECT id FROM select_descendant_label_ids($1)`, rootID)
}

// SelectDocIDsForLabels returns the distinct documents linked to any of labelIDs.
func (h *LabelsDBHandler) SelectDocIDsForLabels(ctx context.Context, labelIDs []int64) ([]int64, error) {
	if len(labelIDs) == 0 {
		return []int64{}, nil
	}
	return h.selectIDs(ctx, `SELECT doc_id FROM select_doc_ids_for_labels($1)`, pq.Array(labelIDs))
}

// SelectLabelEdges returns up to limit parent to child edges of the taxonomy.
func (h *LabelsDBHandler) SelectLabelEdges(ctx context.Context, limit int) ([]model.Edge, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT parent_id, child_id FROM select_label_edges($1)`, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	edges := []model.Edge{}
	for rows.Next() {
		edge := model.Edge{}
		if err := rows.Scan(&edge.Source, &edge.Target); err != nil {
			return nil, helper.NewError("scan", err)
		}
		edges = append(edges, edge)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

func (h *LabelsDBHandler) selectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, helper.NewError("scan", err)
		}
		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLabel(row rowScanner, label *model.Label) error {
	var parentID sql.NullInt64
	err := row.Scan(
		&label.ID,
		&label.Slug,
		&label.Name,
		&parentID,
		&label.CreatedAt,
	)
	if err != nil {
		return err
	}

	label.ParentID = nil
	if parentID.Valid {
		label.ParentID = &parentID.Int64
	}
	return nil
}
