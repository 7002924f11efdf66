package job

import (
	"context"
	"encoding/json"
	"fmt"

	"ragcore/src/core/library"
	"ragcore/src/storage/minioctrl"
)

// IngestTask runs queued ingestions: it pulls the uploaded payload back out
// of the object store and pushes it through the ingestion pipeline.
type IngestTask struct {
	libraryService *library.Service
	minioService   *minioctrl.MinioService
}

func NewIngestTask(libraryService *library.Service, minioService *minioctrl.MinioService) *IngestTask {
	return &IngestTask{
		libraryService: libraryService,
		minioService:   minioService,
	}
}

func (t *IngestTask) Handle(ctx context.Context, payload json.RawMessage) error {
	var ingestPayload IngestPayload
	if err := json.Unmarshal(payload, &ingestPayload); err != nil {
		return fmt.Errorf("failed to unmarshal ingest payload: %w", err)
	}

	data, err := t.minioService.Get(ctx, ingestPayload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to fetch payload %s: %w", ingestPayload.ObjectKey, err)
	}

	if _, err := t.libraryService.Ingest(ctx, library.IngestInput{
		Payload:     data,
		ContentType: ingestPayload.ContentType,
		Filename:    ingestPayload.Filename,
		DocumentID:  ingestPayload.DocumentID,
	}); err != nil {
		return fmt.Errorf("failed to ingest %s: %w", ingestPayload.Filename, err)
	}

	return nil
}
