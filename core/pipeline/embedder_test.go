package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbedder(t *testing.T) {
	// Note: DefaultEmbedder uses hugot which requires downloading models
	// These tests may take longer on first run
	if testing.Short() {
		t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
	}

	embedder, err := DefaultEmbedder()
	require.NoError(t, err)
	require.NotNil(t, embedder)

	t.Run("Generate embedding for text", func(t *testing.T) {
		embedding, err := embedder("This is a test sentence.")

		require.NoError(t, err)
		assert.Len(t, embedding, DefaultDimension, "all-MiniLM-L6-v2 produces 384-dimensional embeddings")
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		embedding1, err := embedder("Deterministic embedding test")
		require.NoError(t, err)
		embedding2, err := embedder("Deterministic embedding test")
		require.NoError(t, err)

		for i := range embedding1 {
			assert.InDelta(t, embedding1[i], embedding2[i], 0.0001, "Same text should produce same embedding")
		}
	})

	t.Run("Similar texts have similar embeddings", func(t *testing.T) {
		embedding1, err := embedder("The dog is happy")
		require.NoError(t, err)
		embedding2, err := embedder("The puppy is joyful")
		require.NoError(t, err)
		embedding3, err := embedder("Quantum physics is complex")
		require.NoError(t, err)

		assert.Greater(t, cosineSimilarity(embedding1, embedding2), cosineSimilarity(embedding1, embedding3),
			"Semantically similar texts should have higher similarity")
	})
}
