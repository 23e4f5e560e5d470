package pipeline

import (
	"fmt"
	"math"
	"strings"
)

// SentenceSplitter creates a splitter that groups up to maxSentences sentences per section
func SentenceSplitter(maxSentences int) SplitFunc {
	return func(text string) ([]Section, error) {
		if maxSentences <= 0 {
			return nil, fmt.Errorf("max sentences per section must be positive")
		}

		spans := sentenceSpans(text)
		var sections []Section
		for i := 0; i < len(spans); i += maxSentences {
			end := min(i+maxSentences, len(spans))
			sections = append(sections, newSection(text, spans[i].start, spans[end-1].end, len(sections)))
		}
		return sections, nil
	}
}

// ParagraphSplitter creates a splitter that splits on blank lines
func ParagraphSplitter() SplitFunc {
	return func(text string) ([]Section, error) {
		var sections []Section
		pos := 0
		for _, para := range strings.Split(text, "\n\n") {
			start := pos
			pos += len(para) + 2

			trimmed := strings.TrimSpace(para)
			if trimmed == "" {
				continue
			}
			offset := strings.Index(para, trimmed)
			sections = append(sections, newSection(text, start+offset, start+offset+len(trimmed), len(sections)))
		}
		return sections, nil
	}
}

// SemanticSplitter groups sentences while their embedding stays close to the running
// mean of the current section. A section is closed when the cosine similarity drops
// below threshold or when it would grow beyond maxSize bytes.
func SemanticSplitter(embed EmbedFunc, maxSize int, threshold float32) SplitFunc {
	return func(text string) ([]Section, error) {
		if maxSize <= 0 {
			return nil, fmt.Errorf("max section size must be positive")
		}

		spans := sentenceSpans(text)
		if len(spans) == 0 {
			return []Section{}, nil
		}

		embeddings := make([][]float32, len(spans))
		for i, s := range spans {
			embedding, err := embed(text[s.start:s.end])
			if err != nil {
				return nil, fmt.Errorf("failed to generate embeddings: %w", err)
			}
			embeddings[i] = embedding
		}

		var sections []Section
		first := 0
		mean := append([]float32(nil), embeddings[0]...)
		for i := 1; i < len(spans); i++ {
			size := spans[i].end - spans[first].start
			if cosineSimilarity(mean, embeddings[i]) < threshold || size > maxSize {
				sections = append(sections, newSection(text, spans[first].start, spans[i-1].end, len(sections)))
				first = i
				mean = append(mean[:0], embeddings[i]...)
				continue
			}

			n := float32(i - first)
			for j := range mean {
				if j < len(embeddings[i]) {
					mean[j] = (mean[j]*n + embeddings[i][j]) / (n + 1)
				}
			}
		}
		sections = append(sections, newSection(text, spans[first].start, spans[len(spans)-1].end, len(sections)))

		return sections, nil
	}
}

type span struct {
	start, end int
}

// sentenceSpans returns trimmed sentence boundaries. Sentences end at '.', '!' or '?' followed by a space.
func sentenceSpans(text string) []span {
	var spans []span
	start := 0
	flush := func(end int) {
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			offset := strings.Index(text[start:end], s)
			spans = append(spans, span{start + offset, start + offset + len(s)})
		}
	}
	for i := 0; i < len(text)-1; i++ {
		if (text[i] == '.' || text[i] == '!' || text[i] == '?') && text[i+1] == ' ' {
			flush(i + 1)
			start = i + 1
		}
	}
	flush(len(text))
	return spans
}

func newSection(text string, start, end, index int) Section {
	return Section{Content: text[start:end], Index: index, Start: start, End: end}
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
