package helper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidIdentifier is returned for graph names, labels, edge types or
// search path entries that do not match the identifier pattern.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Postgres truncates identifiers at 63 bytes.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateIdentifier checks that name can be placed verbatim into a query.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// ValidateIdentifiers validates every name and returns the first failure.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSearchPath checks a comma separated schema list such as "ag_catalog, public"
// and returns it normalized to "ag_catalog, public" form.
func ValidateSearchPath(searchPath string) (string, error) {
	parts := strings.Split(searchPath, ",")
	schemas := make([]string, 0, len(parts))
	for _, part := range parts {
		schema := strings.TrimSpace(part)
		if err := ValidateIdentifier(schema); err != nil {
			return "", err
		}
		schemas = append(schemas, schema)
	}
	return strings.Join(schemas, ", "), nil
}
