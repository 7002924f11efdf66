package documentctrl

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragcore/src/core/document"
)

// Document is the gorm row for document metadata. Raw payloads live in the
// object store; vectors live in the index.
type Document struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Filename    string    `gorm:"not null" json:"filename"`
	ContentType string    `gorm:"not null" json:"content_type"`
	ObjectKey   string    `gorm:"column:object_key" json:"object_key"`
	ChunkCount  int       `gorm:"not null" json:"chunk_count"`
	UploadedAt  time.Time `gorm:"not null" json:"uploaded_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DocumentService struct {
	db *gorm.DB
}

func NewDocumentService(db *gorm.DB) (*DocumentService, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %v", err)
	}
	return &DocumentService{db: db}, nil
}

func (s *DocumentService) Create(ctx context.Context, doc *document.Document) error {
	row := &Document{
		ID:          doc.ID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		ObjectKey:   doc.ObjectKey,
		ChunkCount:  doc.ChunkCount,
		UploadedAt:  doc.UploadedAt,
	}

	result := s.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		return fmt.Errorf("failed to create document: %v", result.Error)
	}

	return nil
}

func (s *DocumentService) Get(ctx context.Context, id int64) (*document.Document, error) {
	var row Document
	result := s.db.WithContext(ctx).First(&row, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %v", result.Error)
	}

	return toCore(&row), nil
}

func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&Document{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %v", result.Error)
	}
	return nil
}

func (s *DocumentService) List(ctx context.Context, offset, limit int) ([]document.Document, error) {
	var rows []Document
	result := s.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list documents: %v", result.Error)
	}

	docs := make([]document.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, *toCore(&rows[i]))
	}
	return docs, nil
}

func toCore(row *Document) *document.Document {
	return &document.Document{
		ID:          row.ID,
		Filename:    row.Filename,
		ContentType: row.ContentType,
		ObjectKey:   row.ObjectKey,
		ChunkCount:  row.ChunkCount,
		UploadedAt:  row.UploadedAt,
	}
}
