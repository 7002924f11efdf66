package embedding_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ragcore/src/core/embedding"
)

// fakeProvider returns one vector per text whose single component encodes the
// text's global position, so tests can verify ordering across sub-batches. It
// can be scripted to fail the first N calls.
type fakeProvider struct {
	calls      int
	batchSizes []int
	failFirst  int
	short      bool
	next       int
}

func (f *fakeProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.calls <= f.failFirst {
		return nil, fmt.Errorf("upstream overloaded (call %d)", f.calls)
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vectors = append(vectors, []float32{float32(f.next)})
		f.next++
	}
	return vectors, nil
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	provider := &fakeProvider{}
	gateway := embedding.NewGateway(provider, "test-model", embedding.WithBatchSize(3))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	vectors, err := gateway.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch returned error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: got position %v", i, v[0])
		}
	}

	wantBatches := []int{3, 3, 3, 1}
	if len(provider.batchSizes) != len(wantBatches) {
		t.Fatalf("provider saw %d calls, want %d", len(provider.batchSizes), len(wantBatches))
	}
	for i, size := range wantBatches {
		if provider.batchSizes[i] != size {
			t.Errorf("call %d had batch size %d, want %d", i, provider.batchSizes[i], size)
		}
	}
}

func TestEmbedBatchRetriesTransientFailure(t *testing.T) {
	provider := &fakeProvider{failFirst: 2}
	gateway := embedding.NewGateway(provider, "test-model",
		embedding.WithMaxRetries(3),
		embedding.WithInitialWait(time.Millisecond),
	)

	vectors, err := gateway.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch returned error after transient failures: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestEmbedBatchExhaustsRetryBudget(t *testing.T) {
	provider := &fakeProvider{failFirst: 100}
	gateway := embedding.NewGateway(provider, "test-model",
		embedding.WithMaxRetries(2),
		embedding.WithInitialWait(time.Millisecond),
	)

	_, err := gateway.EmbedBatch(context.Background(), []string{"a"})
	if !errors.Is(err, embedding.ErrRateLimited) {
		t.Fatalf("EmbedBatch error = %v, want ErrRateLimited", err)
	}
	// Initial attempt plus two retries.
	if provider.calls != 3 {
		t.Errorf("provider called %d times, want 3", provider.calls)
	}
}

func TestEmbedBatchMismatchedCountIsPermanent(t *testing.T) {
	provider := &fakeProvider{short: true}
	gateway := embedding.NewGateway(provider, "test-model",
		embedding.WithMaxRetries(3),
		embedding.WithInitialWait(time.Millisecond),
	)

	_, err := gateway.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, embedding.ErrProvider) {
		t.Fatalf("EmbedBatch error = %v, want ErrProvider", err)
	}
	if errors.Is(err, embedding.ErrRateLimited) {
		t.Errorf("miscounted response must not be reported as retry exhaustion: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 (no retry on permanent error)", provider.calls)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	provider := &fakeProvider{}
	gateway := embedding.NewGateway(provider, "test-model")

	vectors, err := gateway.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch returned error: %v", err)
	}
	if vectors != nil {
		t.Errorf("EmbedBatch of no texts = %v, want nil", vectors)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for empty input", provider.calls)
	}
}

func TestEmbedBatchHonorsCancellation(t *testing.T) {
	provider := &fakeProvider{failFirst: 100}
	gateway := embedding.NewGateway(provider, "test-model",
		embedding.WithMaxRetries(10),
		embedding.WithInitialWait(50*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.EmbedBatch(ctx, []string{"a"})
	if err == nil {
		t.Fatal("EmbedBatch succeeded with cancelled context")
	}
	if errors.Is(err, embedding.ErrRateLimited) {
		t.Errorf("cancellation must not be reported as retry exhaustion: %v", err)
	}
}

func TestEmbedQuery(t *testing.T) {
	provider := &fakeProvider{}
	gateway := embedding.NewGateway(provider, "test-model")

	vector, err := gateway.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery returned error: %v", err)
	}
	if len(vector) != 1 || vector[0] != 0 {
		t.Errorf("EmbedQuery vector = %v", vector)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}
