package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"ragcore/src/core/document"
	"ragcore/src/core/rag"
	"ragcore/src/infrastructure/log"
)

// Embedder is the write-path face of the embedding gateway.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the write side of the vector store. Upsert is idempotent by
// chunk ID and all-or-nothing per batch; DeleteDocument is a no-op when the
// document has no entries.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []rag.IndexEntry) error
	DeleteDocument(ctx context.Context, documentID int64) error
}

// DocumentStore persists document metadata.
type DocumentStore interface {
	Create(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, id int64) (*document.Document, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset, limit int) ([]document.Document, error)
}

// ObjectStore keeps the raw uploaded payloads.
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, data []byte, contentType string) error
	Delete(ctx context.Context, objectKey string) error
}

// Service ties the ingestion pipeline, embedding gateway, vector index and
// stores together behind the document entry points.
type Service struct {
	pipeline  *document.Pipeline
	embedder  Embedder
	index     VectorIndex
	documents DocumentStore
	objects   ObjectStore // optional; nil skips raw payload storage
	snowflake *snowflake.Node

	serializeIngest bool
	inflightMu      sync.Mutex
	inflight        map[string]*sync.Mutex
}

type ServiceOption func(*Service)

// WithObjectStore enables raw payload storage alongside the index.
func WithObjectStore(objects ObjectStore) ServiceOption {
	return func(s *Service) { s.objects = objects }
}

// WithSerializedIngest makes concurrent ingestions of the same filename take
// turns instead of racing. Off by default; callers that already serialize
// per document do not pay for it.
func WithSerializedIngest(enabled bool) ServiceOption {
	return func(s *Service) { s.serializeIngest = enabled }
}

func NewService(pipeline *document.Pipeline, embedder Embedder, index VectorIndex, documents DocumentStore, opts ...ServiceOption) (*Service, error) {
	if pipeline == nil || embedder == nil || index == nil || documents == nil {
		return nil, fmt.Errorf("pipeline, embedder, index and document store are required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	s := &Service{
		pipeline:  pipeline,
		embedder:  embedder,
		index:     index,
		documents: documents,
		snowflake: node,
		inflight:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IngestInput is one document handed to the ingestion entry point.
// DocumentID is optional: zero mints a fresh ID, while callers that may
// retry (the job worker) pin one up front with NewDocumentID so every
// attempt writes the same chunk IDs and re-upserts replace instead of
// duplicating.
type IngestInput struct {
	Payload     []byte `json:"payload"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	DocumentID  int64  `json:"document_id,omitempty"`
}

// IngestResult is the per-document outcome of an ingestion.
type IngestResult struct {
	DocumentID int64
	Filename   string
	ChunkCount int
	Err        error
}

// Ingest parses, chunks, embeds and indexes one document. Vectors land in
// the index before metadata is persisted, so a failed call leaves no
// document row pointing at missing vectors; retrying with the same
// DocumentID replaces any already-landed entries because chunk IDs are
// deterministic per (document ID, ordinal).
func (s *Service) Ingest(ctx context.Context, in IngestInput) (*document.Document, error) {
	if s.serializeIngest {
		unlock := s.lockFilename(in.Filename)
		defer unlock()
	}

	id := in.DocumentID
	if id == 0 {
		id = s.snowflake.Generate().Int64()
	}

	doc := &document.Document{
		ID:          id,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Payload:     in.Payload,
		UploadedAt:  time.Now().UTC(),
	}

	chunks, err := s.pipeline.Process(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to process document %q: %w", in.Filename, err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks of %q: %w", len(chunks), in.Filename, err)
	}

	entries := make([]rag.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = rag.IndexEntry{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Ordinal:    chunk.Ordinal,
			Text:       chunk.Text,
			Vector:     vectors[i],
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to index %q: %w", in.Filename, err)
	}

	if s.objects != nil {
		doc.ObjectKey = objectKey(doc.ID, doc.Filename)
		if err := s.objects.Put(ctx, doc.ObjectKey, in.Payload, in.ContentType); err != nil {
			return nil, fmt.Errorf("failed to store payload of %q: %w", in.Filename, err)
		}
	}

	doc.ChunkCount = len(chunks)
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document metadata for %q: %w", in.Filename, err)
	}

	log.Info("document ingested", "document_id", doc.ID, "filename", doc.Filename, "chunks", doc.ChunkCount)
	return doc, nil
}

// NewDocumentID mints a document ID ahead of ingestion. Callers that enqueue
// work which may be retried assign the ID at enqueue time so retries write
// the same chunk IDs.
func (s *Service) NewDocumentID() int64 {
	return s.snowflake.Generate().Int64()
}

// IngestBatch ingests documents in order, collecting a result per document.
// One document's failure does not abort the others.
func (s *Service) IngestBatch(ctx context.Context, inputs []IngestInput) []IngestResult {
	results := make([]IngestResult, 0, len(inputs))
	for _, in := range inputs {
		doc, err := s.Ingest(ctx, in)
		if err != nil {
			results = append(results, IngestResult{Filename: in.Filename, Err: err})
			continue
		}
		results = append(results, IngestResult{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount,
		})
	}
	return results
}

// Delete removes a document's index entries, stored payload and metadata.
// Deleting an unknown document is a no-op, not an error.
func (s *Service) Delete(ctx context.Context, documentID int64) error {
	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete index entries for document %d: %w", documentID, err)
	}

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to look up document %d: %w", documentID, err)
	}
	if doc == nil {
		return nil
	}

	if s.objects != nil && doc.ObjectKey != "" {
		if err := s.objects.Delete(ctx, doc.ObjectKey); err != nil {
			return fmt.Errorf("failed to delete payload of document %d: %w", documentID, err)
		}
	}

	if err := s.documents.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete metadata of document %d: %w", documentID, err)
	}

	log.Info("document deleted", "document_id", documentID)
	return nil
}

// List returns stored document metadata, newest first.
func (s *Service) List(ctx context.Context, offset, limit int) ([]document.Document, error) {
	return s.documents.List(ctx, offset, limit)
}

func (s *Service) lockFilename(filename string) func() {
	s.inflightMu.Lock()
	mu, ok := s.inflight[filename]
	if !ok {
		mu = &sync.Mutex{}
		s.inflight[filename] = mu
	}
	s.inflightMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func objectKey(documentID int64, filename string) string {
	return fmt.Sprintf("%d/%s", documentID, filename)
}
