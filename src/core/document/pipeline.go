package document

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Pipeline turns an uploaded document into its ordered chunk sequence:
// extract text, normalize it, split it. It performs no storage; persisting
// chunks and vectors is the index adapter's job.
//
// Most formats go through the fixed-window Chunker and keep its exact-overlap
// and round-trip guarantees. Markdown is the exception: it is split along
// document structure instead, so its chunk boundaries are deterministic but
// not window-shaped.
type Pipeline struct {
	chunker *Chunker
}

func NewPipeline(chunkSize, chunkOverlap int) (*Pipeline, error) {
	chunker, err := NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}
	return &Pipeline{chunker: chunker}, nil
}

// Chunker exposes the pipeline's window chunker, used by callers that need
// to reassemble text from stored chunks.
func (p *Pipeline) Chunker() *Chunker { return p.chunker }

// Process extracts, normalizes and splits a document. It fails with
// ErrUnsupportedFormat when the payload cannot be parsed to text and with
// ErrEmptyContent when nothing remains after normalization.
func (p *Pipeline) Process(doc *Document) ([]Chunk, error) {
	text, format, err := Extract(doc.ContentType, doc.Filename, doc.Payload)
	if err != nil {
		return nil, err
	}

	text = Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContent, doc.Filename)
	}

	if format == FormatMarkdown {
		return p.splitMarkdown(doc.ID, text)
	}
	return p.chunker.Split(doc.ID, text), nil
}

// splitMarkdown splits along markdown structure instead of fixed windows,
// keeping headings and code fences intact. Boundaries remain deterministic
// for identical input and configuration.
func (p *Pipeline) splitMarkdown(documentID int64, text string) ([]Chunk, error) {
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(p.chunker.Size()),
		textsplitter.WithChunkOverlap(p.chunker.Overlap()),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split markdown: %w", err)
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: markdown splitter produced no chunks", ErrEmptyContent)
	}

	chunks := make([]Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, Chunk{
			ID:         ChunkID(documentID, i),
			DocumentID: documentID,
			Ordinal:    i,
			Text:       piece,
			Length:     len([]rune(piece)),
		})
	}
	return chunks, nil
}
