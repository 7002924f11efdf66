package document

import (
	"fmt"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits normalized text into fixed windows of at most Size
// characters, each consecutive pair sharing exactly Overlap characters.
// Windows start at every multiple of (Size-Overlap) below the text length,
// so splitting is fully determined by the input and the configuration.
// These window guarantees apply to every format the Pipeline routes here;
// markdown takes the structural splitter instead and is exempt from them.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d for size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split produces the ordered chunk sequence for a document's text. The
// chunks cover the whole text with no gaps; the last window may be shorter
// than the configured size.
func (c *Chunker) Split(documentID int64, text string) []Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	chunks := make([]Chunk, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		ordinal := len(chunks)
		chunks = append(chunks, Chunk{
			ID:         ChunkID(documentID, ordinal),
			DocumentID: documentID,
			Ordinal:    ordinal,
			Text:       string(runes[start:end]),
			Length:     end - start,
		})
	}

	return chunks
}

// Reassemble reverses Split: it concatenates chunks in ordinal order,
// dropping each chunk's leading overlap region, and returns the original
// normalized text.
func (c *Chunker) Reassemble(chunks []Chunk) string {
	var runes []rune
	for i, chunk := range chunks {
		text := []rune(chunk.Text)
		if i == 0 {
			runes = append(runes, text...)
			continue
		}
		if len(text) <= c.overlap {
			// A trailing window shorter than the overlap is fully contained
			// in its predecessor.
			continue
		}
		runes = append(runes, text[c.overlap:]...)
	}
	return string(runes)
}
