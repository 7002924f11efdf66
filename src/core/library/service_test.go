package library_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ragcore/src/core/document"
	"ragcore/src/core/library"
	"ragcore/src/core/rag"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

type fakeIndex struct {
	upserted  [][]rag.IndexEntry
	deleted   []int64
	upsertErr error
	deleteErr error
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []rag.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, entries)
	return nil
}

func (f *fakeIndex) DeleteDocument(ctx context.Context, documentID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeDocumentStore struct {
	created []document.Document
	deleted []int64
}

func (f *fakeDocumentStore) Create(ctx context.Context, doc *document.Document) error {
	f.created = append(f.created, *doc)
	return nil
}

func (f *fakeDocumentStore) Get(ctx context.Context, id int64) (*document.Document, error) {
	for i := range f.created {
		if f.created[i].ID == id {
			return &f.created[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDocumentStore) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocumentStore) List(ctx context.Context, offset, limit int) ([]document.Document, error) {
	return f.created, nil
}

type fakeObjectStore struct {
	puts    map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{puts: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	f.puts[objectKey] = data
	return nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func newTestService(t *testing.T, index *fakeIndex, docs *fakeDocumentStore, opts ...library.ServiceOption) *library.Service {
	t.Helper()
	pipeline, err := document.NewPipeline(100, 20)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := library.NewService(pipeline, &fakeEmbedder{}, index, docs, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestIngest(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	objects := newFakeObjectStore()
	svc := newTestService(t, index, docs, library.WithObjectStore(objects))

	payload := []byte(strings.Repeat("searchable content here ", 20))
	doc, err := svc.Ingest(context.Background(), library.IngestInput{
		Payload:     payload,
		ContentType: "text/plain",
		Filename:    "notes.txt",
	})
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if doc.ID == 0 {
		t.Error("document was not assigned an ID")
	}
	if doc.ChunkCount == 0 {
		t.Error("document reports zero chunks")
	}

	if len(index.upserted) != 1 {
		t.Fatalf("index received %d upserts, want 1", len(index.upserted))
	}
	entries := index.upserted[0]
	if len(entries) != doc.ChunkCount {
		t.Errorf("indexed %d entries for %d chunks", len(entries), doc.ChunkCount)
	}
	for i, entry := range entries {
		if entry.ChunkID != document.ChunkID(doc.ID, i) {
			t.Errorf("entry %d has chunk ID %q", i, entry.ChunkID)
		}
		if entry.Vector == nil {
			t.Errorf("entry %d has no vector", i)
		}
	}

	if len(docs.created) != 1 {
		t.Fatalf("document store has %d rows, want 1", len(docs.created))
	}
	if _, ok := objects.puts[doc.ObjectKey]; !ok {
		t.Errorf("payload not stored under %q", doc.ObjectKey)
	}
}

func TestIngestFailureLeavesNoMetadata(t *testing.T) {
	tests := []struct {
		name  string
		index *fakeIndex
		input library.IngestInput
		want  error
	}{
		{
			name:  "unsupported format",
			index: &fakeIndex{},
			input: library.IngestInput{Filename: "img.png", ContentType: "image/png", Payload: []byte{1}},
			want:  document.ErrUnsupportedFormat,
		},
		{
			name:  "empty content",
			index: &fakeIndex{},
			input: library.IngestInput{Filename: "blank.txt", ContentType: "text/plain", Payload: []byte("  \n ")},
			want:  document.ErrEmptyContent,
		},
		{
			name:  "index unavailable",
			index: &fakeIndex{upsertErr: rag.ErrIndexUnavailable},
			input: library.IngestInput{Filename: "ok.txt", ContentType: "text/plain", Payload: []byte("content")},
			want:  rag.ErrIndexUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &fakeDocumentStore{}
			svc := newTestService(t, tt.index, docs)

			_, err := svc.Ingest(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Ingest error = %v, want %v", err, tt.want)
			}
			if len(docs.created) != 0 {
				t.Errorf("failed ingestion persisted %d metadata rows", len(docs.created))
			}
		})
	}
}

func TestIngestRetryWithPinnedIDRewritesSameChunks(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	svc := newTestService(t, index, docs)

	in := library.IngestInput{
		Payload:     []byte(strings.Repeat("content that may be retried ", 10)),
		ContentType: "text/plain",
		Filename:    "retry.txt",
		DocumentID:  svc.NewDocumentID(),
	}

	first, err := svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != in.DocumentID || second.ID != in.DocumentID {
		t.Fatalf("document IDs %d and %d do not match the pinned ID %d", first.ID, second.ID, in.DocumentID)
	}

	if len(index.upserted) != 2 {
		t.Fatalf("index received %d upserts, want 2", len(index.upserted))
	}
	if len(index.upserted[0]) != len(index.upserted[1]) {
		t.Fatalf("attempts wrote %d and %d entries", len(index.upserted[0]), len(index.upserted[1]))
	}
	for i := range index.upserted[0] {
		if index.upserted[0][i].ChunkID != index.upserted[1][i].ChunkID {
			t.Errorf("entry %d chunk ID changed across retries: %q vs %q; the first attempt's entries would stay orphaned",
				i, index.upserted[0][i].ChunkID, index.upserted[1][i].ChunkID)
		}
	}
}

func TestIngestMintsIDWhenUnpinned(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	svc := newTestService(t, index, docs)

	in := library.IngestInput{
		Payload:     []byte("independent upload"),
		ContentType: "text/plain",
		Filename:    "fresh.txt",
	}

	first, err := svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Errorf("independent ingestions shared document ID %d", first.ID)
	}
}

func TestIngestBatchContinuesPastFailures(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	svc := newTestService(t, index, docs)

	results := svc.IngestBatch(context.Background(), []library.IngestInput{
		{Filename: "one.txt", ContentType: "text/plain", Payload: []byte("first document")},
		{Filename: "bad.png", ContentType: "image/png", Payload: []byte{1, 2, 3}},
		{Filename: "two.txt", ContentType: "text/plain", Payload: []byte("second document")},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("healthy documents failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("unsupported document reported no error")
	}
	if !errors.Is(results[1].Err, document.ErrUnsupportedFormat) {
		t.Errorf("bad document error = %v, want ErrUnsupportedFormat", results[1].Err)
	}
	if len(docs.created) != 2 {
		t.Errorf("document store has %d rows, want 2", len(docs.created))
	}
	for i, r := range results {
		if r.Filename == "" {
			t.Errorf("result %d has no filename", i)
		}
	}
}

func TestDelete(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	objects := newFakeObjectStore()
	svc := newTestService(t, index, docs, library.WithObjectStore(objects))

	doc, err := svc.Ingest(context.Background(), library.IngestInput{
		Filename:    "keep.txt",
		ContentType: "text/plain",
		Payload:     []byte("some content to delete"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if len(index.deleted) != 1 || index.deleted[0] != doc.ID {
		t.Errorf("index deletions = %v, want [%d]", index.deleted, doc.ID)
	}
	if len(docs.deleted) != 1 || docs.deleted[0] != doc.ID {
		t.Errorf("metadata deletions = %v, want [%d]", docs.deleted, doc.ID)
	}
	if len(objects.deleted) != 1 || objects.deleted[0] != doc.ObjectKey {
		t.Errorf("payload deletions = %v, want [%s]", objects.deleted, doc.ObjectKey)
	}
}

func TestDeleteUnknownDocumentIsNoOp(t *testing.T) {
	index := &fakeIndex{}
	docs := &fakeDocumentStore{}
	svc := newTestService(t, index, docs)

	if err := svc.Delete(context.Background(), 12345); err != nil {
		t.Fatalf("Delete of unknown document returned error: %v", err)
	}
	if len(docs.deleted) != 0 {
		t.Errorf("metadata delete issued for unknown document: %v", docs.deleted)
	}
}

func TestDeletePropagatesIndexFailure(t *testing.T) {
	index := &fakeIndex{deleteErr: fmt.Errorf("connection reset")}
	docs := &fakeDocumentStore{}
	svc := newTestService(t, index, docs)

	if err := svc.Delete(context.Background(), 1); err == nil {
		t.Fatal("Delete succeeded despite index failure")
	}
	if len(docs.deleted) != 0 {
		t.Error("metadata deleted although the index delete failed")
	}
}
