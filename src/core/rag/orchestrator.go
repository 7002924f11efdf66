package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ragcore/src/infrastructure/log"
)

const (
	DefaultTopK         = 5
	DefaultPromptBudget = 8000
	DefaultHistoryLimit = 10

	// defaultHybridAlpha weights the vector side of a hybrid query; 0.5
	// gives vector similarity and keyword score equal say.
	defaultHybridAlpha = 0.5
)

// Orchestrator drives one chat request through
// ReceivedQuery → Embedding → Retrieving → PromptAssembly → Generating →
// Responded, with Failed reachable from every non-terminal state. Requests
// are independent; the orchestrator holds no mutable state between calls.
type Orchestrator struct {
	embedder  Embedder
	index     VectorIndex
	generator Generator

	topK         int
	promptBudget int
	historyLimit int

	embedTimeout    time.Duration
	queryTimeout    time.Duration
	generateTimeout time.Duration
}

type OrchestratorOption func(*Orchestrator)

// WithTopK sets how many index entries are retrieved per query.
func WithTopK(k int) OrchestratorOption {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithPromptBudget bounds the assembled prompt size in characters.
func WithPromptBudget(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.promptBudget = n
		}
	}
}

// WithHistoryLimit bounds how many recent turns enter the prompt.
func WithHistoryLimit(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.historyLimit = n
		}
	}
}

// WithTimeouts configures the per-call deadlines for embedding, index query
// and generation. Zero leaves a call without its own deadline.
func WithTimeouts(embed, query, generate time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.embedTimeout = embed
		o.queryTimeout = query
		o.generateTimeout = generate
	}
}

func NewOrchestrator(embedder Embedder, index VectorIndex, generator Generator, opts ...OrchestratorOption) (*Orchestrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	o := &Orchestrator{
		embedder:     embedder,
		index:        index,
		generator:    generator,
		topK:         DefaultTopK,
		promptBudget: DefaultPromptBudget,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.embedder == nil || o.index == nil {
		return nil, fmt.Errorf("embedder and vector index are required")
	}
	return o, nil
}

// Chat answers one request. In ModeSimple retrieval is bypassed entirely and
// the request jumps straight to generation.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*Response, error) {
	state := StateReceivedQuery
	if strings.TrimSpace(req.Query) == "" {
		return nil, failed(state, ErrInvalidRequest, fmt.Errorf("empty query"))
	}

	var entries []IndexEntry
	if req.Mode != ModeSimple {
		state = StateEmbedding
		vector, err := o.embedQuery(ctx, req.Query)
		if err != nil {
			return nil, failed(state, ErrRetrievalUnavailable, err)
		}

		state = StateRetrieving
		entries, err = o.retrieve(ctx, req.Mode, req.Query, vector)
		if err != nil {
			return nil, failed(state, ErrRetrievalUnavailable, err)
		}
		// Zero results is not a failure; the prompt proceeds with empty
		// context.
	}

	state = StatePromptAssembly
	prompt, used, err := AssemblePrompt(req.Query, req.History, entries, o.promptBudget, o.historyLimit)
	if err != nil {
		return nil, failed(state, ErrInvalidRequest, err)
	}

	state = StateGenerating
	answer, err := o.generate(ctx, req.Mode, prompt)
	if err != nil {
		return nil, failed(state, ErrGenerationUnavailable, err)
	}

	state = StateResponded
	log.Debug("chat request responded",
		"session_id", req.SessionID,
		"mode", string(req.Mode),
		"retrieved", len(entries),
		"cited", len(used),
		"state", string(state))

	sources := make([]Citation, 0, len(used))
	for _, entry := range used {
		sources = append(sources, Citation{ChunkID: entry.ChunkID, DocumentID: entry.DocumentID})
	}

	return &Response{Answer: answer, Sources: sources}, nil
}

func (o *Orchestrator) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := o.withTimeout(ctx, o.embedTimeout)
	defer cancel()

	vector, err := o.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, mode Mode, query string, vector []float32) ([]IndexEntry, error) {
	ctx, cancel := o.withTimeout(ctx, o.queryTimeout)
	defer cancel()

	if mode == ModeHybrid {
		if hybrid, ok := o.index.(HybridIndex); ok {
			entries, err := hybrid.QueryHybrid(ctx, query, vector, o.topK, defaultHybridAlpha)
			if err != nil {
				return nil, fmt.Errorf("failed to query index (hybrid): %w", err)
			}
			return entries, nil
		}
		// Index has no keyword side; vector-only is the closest answer.
	}

	entries, err := o.index.Query(ctx, vector, o.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	return entries, nil
}

// generate invokes the model, retrying once before surfacing the failure.
func (o *Orchestrator) generate(ctx context.Context, mode Mode, prompt string) (string, error) {
	system := ragSystemPrompt
	if mode == ModeSimple {
		system = simpleSystemPrompt
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		genCtx, cancel := o.withTimeout(ctx, o.generateTimeout)
		answer, err := o.generator.Generate(genCtx, system, prompt)
		cancel()
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			// Client went away; stop waiting rather than retrying.
			return "", ctx.Err()
		}
		log.Debug("generation attempt failed", "attempt", attempt+1, "error", err.Error())
	}

	return "", fmt.Errorf("generation failed after retry: %w", lastErr)
}

func (o *Orchestrator) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
