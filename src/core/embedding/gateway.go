package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"ragcore/src/infrastructure/log"
)

var (
	// ErrProvider is returned on transport or auth failure against the
	// embedding provider.
	ErrProvider = errors.New("embedding provider error")
	// ErrRateLimited is returned once the retry budget for a batch is
	// exhausted.
	ErrRateLimited = errors.New("embedding retry budget exhausted")

	// errMiscounted marks a provider response that violated the one vector
	// per input contract. Retry returns permanent errors unwrapped, so this
	// has to live in the chain itself to survive past backoff.Retry.
	errMiscounted = errors.New("miscounted embedding response")
)

const (
	DefaultBatchSize   = 32
	DefaultMaxRetries  = 3
	defaultInitialWait = 200 * time.Millisecond
)

// Provider is the text-to-vector model behind the gateway.
type Provider interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Gateway wraps a Provider with order-preserving batching and exponential
// backoff retry. One vector is returned per input, in input order.
type Gateway struct {
	provider    Provider
	model       string
	batchSize   int
	maxRetries  uint64
	initialWait time.Duration
}

type Option func(*Gateway)

// WithBatchSize bounds the number of texts sent per provider call.
func WithBatchSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithMaxRetries sets the retry attempt limit per batch.
func WithMaxRetries(n int) Option {
	return func(g *Gateway) {
		if n >= 0 {
			g.maxRetries = uint64(n)
		}
	}
}

// WithInitialWait sets the first backoff interval. Tests shrink it.
func WithInitialWait(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.initialWait = d
		}
	}
}

func NewGateway(provider Provider, model string, opts ...Option) *Gateway {
	g := &Gateway{
		provider:    provider,
		model:       model,
		batchSize:   DefaultBatchSize,
		maxRetries:  DefaultMaxRetries,
		initialWait: defaultInitialWait,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the embedding model name the gateway is bound to.
func (g *Gateway) Model() string { return g.model }

// EmbedBatch embeds texts in provider-sized sub-batches, preserving input
// order. Each sub-batch is retried with exponential backoff; when the budget
// runs out the call fails with ErrRateLimited wrapping the last cause.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := g.embedWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// EmbedQuery embeds a single text.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *Gateway) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		result, err := g.provider.Embed(ctx, g.model, texts)
		if err != nil {
			log.Debug("embedding attempt failed", "batch_size", len(texts), "error", err.Error())
			return fmt.Errorf("%w: %v", ErrProvider, err)
		}
		if len(result) != len(texts) {
			// A miscounted response will not fix itself on retry.
			return backoff.Permanent(fmt.Errorf("%w: %w: got %d vectors for %d inputs", ErrProvider, errMiscounted, len(result), len(texts)))
		}
		vectors = result
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.initialWait
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, g.maxRetries), ctx)

	if err := backoff.Retry(operation, retry); err != nil {
		if errors.Is(err, errMiscounted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrRateLimited, g.maxRetries+1, err)
	}

	return vectors, nil
}
