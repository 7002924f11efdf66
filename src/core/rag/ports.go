package rag

import (
	"context"
	"time"
)

// Embedder produces the query-time vector for retrieval.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the read side of the vector store.
type VectorIndex interface {
	// Query returns up to k entries ordered by descending similarity, ties
	// broken by chunk ID. Fewer than k matches is not an error.
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]IndexEntry, error)
}

// HybridIndex is implemented by indexes that can mix vector similarity with
// keyword matching. The orchestrator uses it for ModeHybrid requests and
// falls back to plain Query when the index does not support it.
type HybridIndex interface {
	QueryHybrid(ctx context.Context, queryText string, vector []float32, k int, alpha float32) ([]IndexEntry, error)
}

// Generator invokes the generation model with an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// IndexEntry is the persisted unit in the vector store: a chunk identifier,
// its vector, and enough metadata to cite the source document.
type IndexEntry struct {
	ChunkID    string
	DocumentID int64
	Ordinal    int
	Text       string
	Vector     []float32 `json:"-"`
	Similarity float64
}

// Filter restricts a query to entries from the given documents. A nil filter
// or empty DocumentIDs matches everything.
type Filter struct {
	DocumentIDs []int64
}

// Turn is one (role, message) pair of a chat session's history.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Mode selects how a request is answered: vector retrieval, vector plus
// keyword retrieval, or plain generation with no retrieval at all.
type Mode string

const (
	ModeRAG    Mode = "rag"
	ModeHybrid Mode = "hybrid"
	ModeSimple Mode = "simple"
)

// Citation names a retrieved chunk that contributed context to an answer.
type Citation struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID int64  `json:"document_id"`
}

// Request is one chat request. History is passed in explicitly; the
// orchestrator keeps no per-session state.
type Request struct {
	Query     string
	SessionID string
	History   []Turn
	Mode      Mode
}

// Response carries the generated answer and the sources used, in the
// similarity order they appeared in the prompt.
type Response struct {
	Answer  string     `json:"answer"`
	Sources []Citation `json:"sources"`
}
