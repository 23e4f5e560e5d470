package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/agesearch/helper"
	"github.com/siherrmann/agesearch/model"
)

// Extension names probed by DetectCapabilities.
const (
	ExtensionAGE      = "age"
	ExtensionVector   = "vector"
	ExtensionPgSearch = "pg_search"
)

// HasExtension reports whether the named extension is installed in the current database.
func HasExtension(ctx context.Context, db *helper.Database, name string) (bool, error) {
	rows, err := db.Instance.QueryContext(ctx, `SELECT 1 FROM pg_extension WHERE extname = $1`, name)
	if err != nil {
		return false, helper.NewError("query", err)
	}
	defer rows.Close()

	found := rows.Next()

	err = rows.Err()
	if err != nil {
		return false, helper.NewError("rows error", err)
	}

	return found, nil
}

// DetectCapabilities probes the optional extensions a search engine can use.
func DetectCapabilities(ctx context.Context, db *helper.Database) (model.Capabilities, error) {
	caps := model.Capabilities{}
	if db == nil {
		return caps, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	var err error
	caps.HasAGE, err = HasExtension(ctx, db, ExtensionAGE)
	if err != nil {
		return caps, err
	}
	caps.HasVector, err = HasExtension(ctx, db, ExtensionVector)
	if err != nil {
		return caps, err
	}
	caps.HasPgSearch, err = HasExtension(ctx, db, ExtensionPgSearch)
	if err != nil {
		return caps, err
	}

	db.Logger.Debug("Detected capabilities", "age", caps.HasAGE, "vector", caps.HasVector, "pg_search", caps.HasPgSearch)

	return caps, nil
}

// InstalledExtensions lists the names of all installed extensions.
func InstalledExtensions(ctx context.Context, db *helper.Database) ([]string, error) {
	rows, err := db.Instance.QueryContext(ctx, `SELECT extname FROM pg_extension ORDER BY extname`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, helper.NewError("scan", err)
		}
		names = append(names, name)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return names, nil
}

// InitExtensions creates the named extensions unless they exist.
func InitExtensions(ctx context.Context, db *helper.Database, extensions ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := helper.ValidateIdentifiers(extensions...)
	if err != nil {
		return helper.NewError("extension validation", err)
	}

	for _, extension := range extensions {
		_, err := db.Instance.ExecContext(ctx, fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %s;`, extension))
		if err != nil {
			return helper.NewError(fmt.Sprintf("create extension %s", extension), err)
		}
		db.Logger.Info("Checked/created extension", "name", extension)
	}

	return nil
}
