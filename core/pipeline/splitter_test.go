package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceSplitter(t *testing.T) {
	t.Run("Groups sentences", func(t *testing.T) {
		text := "This is sentence one. This is sentence two! Is this sentence three?"

		sections, err := SentenceSplitter(2)(text)

		require.NoError(t, err)
		require.Len(t, sections, 2, "Expected two sections")
		assert.Equal(t, "This is sentence one. This is sentence two!", sections[0].Content)
		assert.Equal(t, "Is this sentence three?", sections[1].Content)
		assert.Equal(t, 1, sections[1].Index)
		assert.Equal(t, sections[1].Content, text[sections[1].Start:sections[1].End], "Expected offsets into the source text")
	})

	t.Run("Single sentence", func(t *testing.T) {
		sections, err := SentenceSplitter(1)("This is a single sentence.")

		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "This is a single sentence.", sections[0].Content)
	})

	t.Run("Whitespace only", func(t *testing.T) {
		sections, err := SentenceSplitter(3)("   \n ")

		require.NoError(t, err)
		assert.Empty(t, sections)
	})

	t.Run("Error with zero max sentences", func(t *testing.T) {
		_, err := SentenceSplitter(0)("Some text.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must be positive")
	})
}

func TestParagraphSplitter(t *testing.T) {
	t.Run("Splits on blank lines", func(t *testing.T) {
		text := "First paragraph.\n\n  Second paragraph.  \n\n\n\nThird."

		sections, err := ParagraphSplitter()(text)

		require.NoError(t, err)
		require.Len(t, sections, 3)
		assert.Equal(t, "First paragraph.", sections[0].Content)
		assert.Equal(t, "Second paragraph.", sections[1].Content)
		assert.Equal(t, "Third.", sections[2].Content)
		for i, s := range sections {
			assert.Equal(t, i, s.Index)
			assert.Equal(t, s.Content, text[s.Start:s.End])
		}
	})

	t.Run("Empty text", func(t *testing.T) {
		sections, err := ParagraphSplitter()("")

		require.NoError(t, err)
		assert.Empty(t, sections)
	})
}

func TestSemanticSplitter(t *testing.T) {
	// sentences about animals point one way, sentences about physics the other
	embed := func(text string) ([]float32, error) {
		switch text {
		case "Dogs bark.", "Cats purr.":
			return []float32{1, 0}, nil
		default:
			return []float32{0, 1}, nil
		}
	}

	t.Run("Breaks where similarity drops", func(t *testing.T) {
		sections, err := SemanticSplitter(embed, 1000, 0.5)("Dogs bark. Cats purr. Quarks spin. Atoms bond.")

		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Equal(t, "Dogs bark. Cats purr.", sections[0].Content)
		assert.Equal(t, "Quarks spin. Atoms bond.", sections[1].Content)
	})

	t.Run("Breaks on size", func(t *testing.T) {
		sections, err := SemanticSplitter(embed, 12, 0.0)("Dogs bark. Cats purr.")

		require.NoError(t, err)
		assert.Len(t, sections, 2)
	})

	t.Run("Embedding error", func(t *testing.T) {
		failing := func(text string) ([]float32, error) { return nil, errors.New("embedding error") }

		_, err := SemanticSplitter(failing, 100, 0.5)("One. Two.")

		assert.ErrorContains(t, err, "embedding error")
	})

	t.Run("Invalid size", func(t *testing.T) {
		_, err := SemanticSplitter(embed, 0, 0.5)("One.")
		assert.Error(t, err)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1}, []float32{1, 2}), "Expected 0 for mismatched dimensions")
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}), "Expected 0 for zero vector")
}
