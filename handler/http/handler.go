package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragcore/src/core/document"
	"ragcore/src/core/embedding"
	"ragcore/src/core/library"
	"ragcore/src/core/rag"
	"ragcore/src/core/system"
	"ragcore/src/infrastructure/job"
)

// LibraryService is the document side of the core consumed by the handlers.
type LibraryService interface {
	Ingest(ctx context.Context, in library.IngestInput) (*document.Document, error)
	IngestBatch(ctx context.Context, inputs []library.IngestInput) []library.IngestResult
	NewDocumentID() int64
	Delete(ctx context.Context, documentID int64) error
	List(ctx context.Context, offset, limit int) ([]document.Document, error)
}

// ChatService answers chat requests.
type ChatService interface {
	Chat(ctx context.Context, req rag.Request) (*rag.Response, error)
}

// HistoryStore persists per-session conversation turns.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, turn rag.Turn) error
	Recent(ctx context.Context, sessionID string, n int) ([]rag.Turn, error)
}

// SystemService reports component health.
type SystemService interface {
	CheckHealth(ctx context.Context) (*system.HealthStatus, error)
}

type Handler struct {
	libraryService LibraryService
	chatService    ChatService
	history        HistoryStore // optional
	sysService     SystemService
	jobService     *job.JobService     // optional; enables async uploads
	staging        library.ObjectStore // payload staging for async uploads
	historyLimit   int
}

type HandlerOption func(*Handler)

// WithHistoryStore enables persisted chat history.
func WithHistoryStore(history HistoryStore, limit int) HandlerOption {
	return func(h *Handler) {
		h.history = history
		if limit > 0 {
			h.historyLimit = limit
		}
	}
}

// WithJobService enables the async upload path: payloads are staged in the
// object store and ingestion runs on the worker.
func WithJobService(jobs *job.JobService, staging library.ObjectStore) HandlerOption {
	return func(h *Handler) {
		h.jobService = jobs
		h.staging = staging
	}
}

func NewHandler(libraryService LibraryService, chatService ChatService, sysService SystemService, opts ...HandlerOption) *Handler {
	h := &Handler{
		libraryService: libraryService,
		chatService:    chatService,
		sysService:     sysService,
		historyLimit:   rag.DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	// Document routes
	api.POST("/documents", h.UploadDocument)
	api.POST("/documents/batch", h.UploadDocumentBatch)
	api.GET("/documents", h.ListDocuments)
	api.DELETE("/documents/:id", h.DeleteDocument)

	// Chat routes
	api.POST("/chat/completions", h.GenerateCompletion)
	api.GET("/chat/history", h.GetChatHistory)

	// System routes
	api.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, document.ErrUnsupportedFormat):
		code = "UNSUPPORTED_FORMAT"
		status = http.StatusBadRequest
	case errors.Is(err, document.ErrEmptyContent):
		code = "EMPTY_CONTENT"
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrInvalidRequest):
		code = "INVALID_REQUEST"
		status = http.StatusBadRequest
	case errors.Is(err, embedding.ErrRateLimited):
		code = "RATE_LIMITED"
		status = http.StatusTooManyRequests
	case errors.Is(err, rag.ErrRetrievalUnavailable),
		errors.Is(err, rag.ErrIndexUnavailable),
		errors.Is(err, rag.ErrGenerationUnavailable),
		errors.Is(err, embedding.ErrProvider):
		code = "SERVICE_UNAVAILABLE"
		status = http.StatusServiceUnavailable
	default:
		if status == 0 || status == http.StatusInternalServerError {
			code = "INTERNAL_ERROR"
			status = http.StatusInternalServerError
		} else {
			code = "BAD_REQUEST"
		}
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
