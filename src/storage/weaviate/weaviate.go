package weaviate

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"ragcore/src/core/rag"
)

const DefaultClassName = "DocumentChunk"

// Index adapts a Weaviate class to the read and write vector index ports.
// Object IDs are derived from chunk IDs, so re-upserting a chunk replaces
// its vector and metadata.
type Index struct {
	client    *weaviate.Client
	className string
}

func NewIndex(client *weaviate.Client, className string) *Index {
	if className == "" {
		className = DefaultClassName
	}
	return &Index{
		client:    client,
		className: className,
	}
}

// EnsureSchema creates the chunk class when it does not exist yet.
func (w *Index) EnsureSchema(ctx context.Context) error {
	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(w.className).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to check schema: %v", rag.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      w.className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"int"}},
			{Name: "ordinal", DataType: []string{"int"}},
			{Name: "content", DataType: []string{"text"}},
		},
	}

	err = w.client.Schema().ClassCreator().WithClass(class).Do(ctx)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("%w: failed to create class %s: %v", rag.ErrIndexUnavailable, w.className, err)
	}
	return nil
}

// Upsert writes a batch of entries. The batch either lands whole or the call
// fails; per-object failures fail the call so the caller can retry the full
// batch idempotently.
func (w *Index) Upsert(ctx context.Context, entries []rag.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	objects := make([]*models.Object, len(entries))
	for i, entry := range entries {
		objects[i] = &models.Object{
			ID:     objectID(entry.ChunkID),
			Class:  w.className,
			Vector: entry.Vector,
			Properties: map[string]interface{}{
				"chunkId":    entry.ChunkID,
				"documentId": entry.DocumentID,
				"ordinal":    entry.Ordinal,
				"content":    entry.Text,
			},
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: batch upsert failed: %v", rag.ErrIndexUnavailable, err)
	}
	if len(resp) != len(objects) {
		return fmt.Errorf("%w: batch upsert returned %d results for %d objects", rag.ErrIndexUnavailable, len(resp), len(objects))
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("%w: object %s: %s", rag.ErrIndexUnavailable, obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}

	return nil
}

// Query returns up to k entries ordered by descending similarity, ties
// broken by ascending chunk ID. Fewer matches than k is not an error.
func (w *Index) Query(ctx context.Context, vector []float32, k int, filter *rag.Filter) ([]rag.IndexEntry, error) {
	if k <= 0 {
		return nil, nil
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	query := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(chunkFields()...).
		WithNearVector(nearVector).
		WithLimit(k)

	if where := whereDocuments(filter); where != nil {
		query = query.WithWhere(where)
	}

	result, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", rag.ErrIndexUnavailable, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: query failed: %s", rag.ErrIndexUnavailable, result.Errors[0].Message)
	}

	return rankEntries(parseEntries(result, w.className), k), nil
}

// QueryHybrid combines vector similarity with BM25 keyword matching; alpha
// weights the vector side.
func (w *Index) QueryHybrid(ctx context.Context, queryText string, vector []float32, k int, alpha float32) ([]rag.IndexEntry, error) {
	if k <= 0 {
		return nil, nil
	}

	hybrid := w.client.GraphQL().HybridArgumentBuilder().
		WithQuery(queryText).
		WithVector(vector).
		WithAlpha(alpha)

	result, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithFields(chunkFields()...).
		WithHybrid(hybrid).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: hybrid query failed: %v", rag.ErrIndexUnavailable, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: hybrid query failed: %s", rag.ErrIndexUnavailable, result.Errors[0].Message)
	}

	return rankEntries(parseEntries(result, w.className), k), nil
}

// DeleteDocument removes every entry whose parent document matches. Matching
// nothing is a no-op, not an error.
func (w *Index) DeleteDocument(ctx context.Context, documentID int64) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueInt(documentID)

	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(w.className).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: batch delete failed: %v", rag.ErrIndexUnavailable, err)
	}

	return nil
}

// Live reports whether the Weaviate instance answers liveness checks.
func (w *Index) Live(ctx context.Context) bool {
	ok, err := w.client.Misc().LiveChecker().Do(ctx)
	return err == nil && ok
}

func chunkFields() []graphql.Field {
	return []graphql.Field{
		{Name: "chunkId"},
		{Name: "documentId"},
		{Name: "ordinal"},
		{Name: "content"},
		{Name: "_additional { id certainty }"},
	}
}

func whereDocuments(filter *rag.Filter) *filters.WhereBuilder {
	if filter == nil || len(filter.DocumentIDs) == 0 {
		return nil
	}
	return filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.ContainsAny).
		WithValueInt(filter.DocumentIDs...)
}

func parseEntries(result *models.GraphQLResponse, className string) []rag.IndexEntry {
	var entries []rag.IndexEntry

	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return entries
	}
	objects, ok := data[className].([]interface{})
	if !ok {
		return entries
	}

	for _, obj := range objects {
		objMap, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}

		entry := rag.IndexEntry{}
		if v, ok := objMap["chunkId"].(string); ok {
			entry.ChunkID = v
		}
		if v, ok := objMap["documentId"].(float64); ok {
			entry.DocumentID = int64(v)
		}
		if v, ok := objMap["ordinal"].(float64); ok {
			entry.Ordinal = int(v)
		}
		if v, ok := objMap["content"].(string); ok {
			entry.Text = v
		}
		if additional, ok := objMap["_additional"].(map[string]interface{}); ok {
			if v, ok := additional["certainty"].(float64); ok {
				entry.Similarity = v
			}
		}

		entries = append(entries, entry)
	}

	return entries
}

// objectID derives the stable Weaviate object UUID for a chunk.
func objectID(chunkID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String())
}
