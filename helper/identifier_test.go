package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	t.Run("Accepts plain identifiers", func(t *testing.T) {
		for _, name := range []string{"knowledge_graph", "Doc", "PARENT_OF", "_hidden", "label2"} {
			assert.NoError(t, ValidateIdentifier(name), "Expected %q to be accepted", name)
		}
	})

	t.Run("Rejects unsafe identifiers", func(t *testing.T) {
		for _, name := range []string{"", "1abc", "Doc`", "a-b", "x; DROP TABLE docs", "has space", "$user"} {
			err := ValidateIdentifier(name)
			assert.ErrorIs(t, err, ErrInvalidIdentifier, "Expected %q to be rejected", name)
		}
	})

	t.Run("Rejects identifiers longer than 63 bytes", func(t *testing.T) {
		long := "a"
		for len(long) < 64 {
			long += "a"
		}
		assert.ErrorIs(t, ValidateIdentifier(long), ErrInvalidIdentifier)
		assert.NoError(t, ValidateIdentifier(long[:63]))
	})

	t.Run("Validate several identifiers", func(t *testing.T) {
		assert.NoError(t, ValidateIdentifiers("Doc", "Label", "HAS_LABEL"))
		assert.ErrorIs(t, ValidateIdentifiers("Doc", "bad-label"), ErrInvalidIdentifier)
	})
}

func TestValidateSearchPath(t *testing.T) {
	t.Run("Normalizes spacing", func(t *testing.T) {
		path, err := ValidateSearchPath("ag_catalog,public")
		require.NoError(t, err, "Expected ValidateSearchPath to not return an error")
		assert.Equal(t, "ag_catalog, public", path)
	})

	t.Run("Rejects injected schema", func(t *testing.T) {
		_, err := ValidateSearchPath("ag_catalog, public; RESET ALL")
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})

	t.Run("Rejects empty entries", func(t *testing.T) {
		_, err := ValidateSearchPath("ag_catalog,,public")
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
}
