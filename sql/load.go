package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed docs.sql
var docsSQL string

//go:embed labels.sql
var labelsSQL string

// Function lists for verification
var DocsFunctions = []string{
	"init_docs",
	"insert_doc",
	"select_docs_by_ids",
	"select_all_docs",
	"update_doc_embedding",
	"delete_doc",
	"search_docs_fts",
	"search_docs_bm25",
	"search_docs_by_vector",
}

var LabelsFunctions = []string{
	"init_labels",
	"insert_label",
	"select_label",
	"select_all_labels",
	"delete_label",
	"select_descendant_label_ids",
	"select_label_edges",
	"insert_doc_label",
	"delete_doc_label",
	"select_doc_ids_for_labels",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocsSql loads document-related SQL functions
func LoadDocsSql(db *sql.DB, force bool) error {
	return load(db, "docs", docsSQL, DocsFunctions, force)
}

// LoadLabelsSql loads label and doc label SQL functions
func LoadLabelsSql(db *sql.DB, force bool) error {
	return load(db, "labels", labelsSQL, LabelsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocsSql(db, force); err != nil {
		return err
	}

	if err := LoadLabelsSql(db, force); err != nil {
		return err
	}

	return nil
}

func load(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
