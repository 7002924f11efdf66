package document

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedFormat is returned when a document's content type cannot
	// be parsed to text.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyContent is returned when no extractable text remains after
	// normalization.
	ErrEmptyContent = errors.New("document has no extractable text")
)

// Document is an uploaded source artifact. It is immutable once stored; the
// ingestion pipeline owns it until it has been chunked.
type Document struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Payload     []byte    `json:"-"`
	ObjectKey   string    `json:"-"`
	ChunkCount  int       `json:"chunk_count"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Chunk is a bounded-length span of a document's normalized text. Chunks of
// one document are ordered by Ordinal and overlap by the configured amount.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID int64  `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
	Text       string `json:"text"`
	Length     int    `json:"length"`
}

// ChunkID derives the stable identifier for a chunk. Re-ingesting the same
// document produces the same IDs, which keeps index upserts idempotent.
func ChunkID(documentID int64, ordinal int) string {
	return fmt.Sprintf("%d-%05d", documentID, ordinal)
}
