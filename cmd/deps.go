package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	weaviateClient "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ragcore/src/core/document"
	"ragcore/src/core/embedding"
	"ragcore/src/core/library"
	"ragcore/src/infrastructure/integrations/ollama"
	"ragcore/src/storage/minioctrl"
	"ragcore/src/storage/postgres/documentctrl"
	"ragcore/src/storage/weaviate"
)

// coreDeps bundles the services shared by the serve, worker and ingest
// commands. Each command builds the same write path; serve adds the read
// path on top.
type coreDeps struct {
	db           *gorm.DB
	documents    *documentctrl.DocumentService
	minio        *minioctrl.MinioService
	index        *weaviate.Index
	ollamaClient *ollama.Client
	gateway      *embedding.Gateway
	library      *library.Service
}

func buildCoreDeps(ctx context.Context) (*coreDeps, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	documentService, err := documentctrl.NewDocumentService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document service: %w", err)
	}

	minioService, err := minioctrl.NewMinioService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
		viper.GetString("minio.bucket"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio service: %w", err)
	}
	if err := minioService.EnsureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	wc := weaviateClient.New(weaviateClient.Config{
		Host:   viper.GetString("weaviate.host"),
		Scheme: viper.GetString("weaviate.scheme"),
	})
	index := weaviate.NewIndex(wc, weaviate.DefaultClassName)
	if err := index.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index schema: %w", err)
	}

	ollamaClient := ollama.NewClient(viper.GetString("ollama.url"), &http.Client{
		Timeout: 5 * time.Minute,
	})

	gateway := embedding.NewGateway(
		ollamaClient,
		viper.GetString("rag.embedding_model"),
		embedding.WithBatchSize(viper.GetInt("rag.embed_batch_size")),
		embedding.WithMaxRetries(viper.GetInt("rag.embed_max_retries")),
	)

	pipeline, err := document.NewPipeline(
		viper.GetInt("rag.chunk_size"),
		viper.GetInt("rag.chunk_overlap"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingestion pipeline: %w", err)
	}

	libraryOpts := []library.ServiceOption{
		library.WithObjectStore(minioService),
	}
	if viper.GetBool("rag.serialize_ingest") {
		libraryOpts = append(libraryOpts, library.WithSerializedIngest(true))
	}
	libraryService, err := library.NewService(pipeline, gateway, index, documentService, libraryOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize library service: %w", err)
	}

	return &coreDeps{
		db:           db,
		documents:    documentService,
		minio:        minioService,
		index:        index,
		ollamaClient: ollamaClient,
		gateway:      gateway,
		library:      libraryService,
	}, nil
}

// closeDB releases the pooled connections behind the gorm handle.
func (d *coreDeps) closeDB() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
