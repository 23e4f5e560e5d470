package pipeline

import (
	"fmt"

	"github.com/siherrmann/agesearch/model"
)

// SplitFunc splits text into ordered sections
type SplitFunc func(text string) ([]Section, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Section is a contiguous part of a text
type Section struct {
	Content string
	Index   int
	Start   int // byte offsets into the source text
	End     int
}

// Pipeline turns a source document into indexable documents with embeddings
type Pipeline struct {
	Splitter SplitFunc // Optional - without it the document is kept whole
	Embedder EmbedFunc // Optional - without it documents carry no embedding
}

// NewPipeline creates a new processing pipeline
func NewPipeline(splitter SplitFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Splitter: splitter,
		Embedder: embedder,
	}
}

// Process splits doc into parts and embeds each of them.
// Parts inherit the metadata of doc and record their position under "part", "part_start" and "part_end".
// A document that yields a single section is returned as one document without part metadata.
func (p *Pipeline) Process(doc *model.Document) ([]*model.Document, error) {
	sections := []Section{{Content: doc.Content, Index: 0, Start: 0, End: len(doc.Content)}}
	if p.Splitter != nil {
		split, err := p.Splitter(doc.Content)
		if err != nil {
			return nil, err
		}
		if len(split) > 0 {
			sections = split
		}
	}

	docs := make([]*model.Document, 0, len(sections))
	for _, s := range sections {
		metadata := model.Metadata{}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}

		part := &model.Document{
			Title:    doc.Title,
			Content:  s.Content,
			Metadata: metadata,
		}
		if len(sections) > 1 {
			part.Title = fmt.Sprintf("%s (%d/%d)", doc.Title, s.Index+1, len(sections))
			metadata["part"] = s.Index
			metadata["part_start"] = s.Start
			metadata["part_end"] = s.End
		}

		if p.Embedder != nil {
			embedding, err := p.Embedder(s.Content)
			if err != nil {
				return nil, err
			}
			part.Embedding = embedding
		}

		docs = append(docs, part)
	}

	return docs, nil
}
