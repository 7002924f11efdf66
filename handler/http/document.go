package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragcore/src/core/library"
	"ragcore/src/infrastructure/job"
)

type uploadResponse struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// UploadDocument godoc
// @Summary Upload and ingest a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document payload"
// @Param async formData bool false "Enqueue ingestion instead of running it inline"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /documents [post]
func (h *Handler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("no file uploaded"))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err))
		return
	}

	input := library.IngestInput{
		Payload:     payload,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}

	if c.PostForm("async") == "true" && h.jobService != nil && h.staging != nil {
		h.enqueueIngest(c, input)
		return
	}

	doc, err := h.libraryService.Ingest(c.Request.Context(), input)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusCreated, uploadResponse{
		ID:         doc.ID,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
	})
}

func (h *Handler) enqueueIngest(c *gin.Context, input library.IngestInput) {
	// The document ID is fixed here, before anything retryable runs, so a
	// requeued job rewrites the same chunk IDs instead of minting new ones.
	documentID := h.libraryService.NewDocumentID()

	objectKey := fmt.Sprintf("incoming/%d/%s", documentID, input.Filename)
	if err := h.staging.Put(c.Request.Context(), objectKey, input.Payload, input.ContentType); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	payload, err := json.Marshal(job.IngestPayload{
		ObjectKey:   objectKey,
		Filename:    input.Filename,
		ContentType: input.ContentType,
		DocumentID:  documentID,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	queued, err := h.jobService.EnqueueJob(c.Request.Context(), job.TaskTypeIngest, payload)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusAccepted, gin.H{"job_id": queued.ID, "document_id": documentID})
}

type batchDocument struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Content     string `json:"content" binding:"required"` // base64
}

type batchUploadRequest struct {
	Documents []batchDocument `json:"documents" binding:"required,min=1"`
}

type batchResult struct {
	Filename   string `json:"filename"`
	DocumentID int64  `json:"document_id,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// UploadDocumentBatch godoc
// @Summary Ingest an ordered batch of documents
// @Tags documents
// @Accept json
// @Produce json
// @Param body body batchUploadRequest true "Documents to ingest"
// @Success 200 {array} batchResult
// @Failure 400 {object} ErrorResponse
// @Router /documents/batch [post]
func (h *Handler) UploadDocumentBatch(c *gin.Context) {
	var req batchUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	inputs := make([]library.IngestInput, 0, len(req.Documents))
	for _, doc := range req.Documents {
		payload, err := base64.StdEncoding.DecodeString(doc.Content)
		if err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("invalid base64 content for %q: %w", doc.Filename, err))
			return
		}
		inputs = append(inputs, library.IngestInput{
			Payload:     payload,
			ContentType: doc.ContentType,
			Filename:    doc.Filename,
		})
	}

	results := h.libraryService.IngestBatch(c.Request.Context(), inputs)

	out := make([]batchResult, 0, len(results))
	for _, r := range results {
		item := batchResult{
			Filename:   r.Filename,
			DocumentID: r.DocumentID,
			ChunkCount: r.ChunkCount,
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}

	sendJSON(c, http.StatusOK, out)
}

// ListDocuments godoc
// @Summary List ingested documents
// @Tags documents
// @Produce json
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Pagination limit"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		sendError(c, http.StatusBadRequest, fmt.Errorf("invalid offset parameter"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		sendError(c, http.StatusBadRequest, fmt.Errorf("invalid limit parameter"))
		return
	}

	docs, err := h.libraryService.List(c.Request.Context(), offset, limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, gin.H{
		"documents": docs,
		"pagination": gin.H{
			"offset": offset,
			"limit":  limit,
		},
	})
}

// DeleteDocument godoc
// @Summary Delete a document and its index entries
// @Tags documents
// @Param id path int true "Document ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /documents/{id} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("invalid document id"))
		return
	}

	if err := h.libraryService.Delete(c.Request.Context(), id); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	c.Status(http.StatusNoContent)
}
