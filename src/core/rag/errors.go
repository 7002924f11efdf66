package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable is surfaced by the vector index adapter on
	// network or storage failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrRetrievalUnavailable marks a chat request that failed before any
	// context could be retrieved.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable marks a generation provider failure after
	// the retry.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrInvalidRequest marks a malformed chat request.
	ErrInvalidRequest = errors.New("invalid chat request")
)

// State is the orchestrator's position in handling one chat request.
type State string

const (
	StateReceivedQuery  State = "received_query"
	StateEmbedding      State = "embedding"
	StateRetrieving     State = "retrieving"
	StatePromptAssembly State = "prompt_assembly"
	StateGenerating     State = "generating"
	StateResponded      State = "responded"
	StateFailed         State = "failed"
)

// RequestError maps a component failure to a single request-level failure
// without losing the originating kind: errors.Is matches both Kind and the
// wrapped cause.
type RequestError struct {
	State State
	Kind  error
	Cause error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chat request failed in state %s: %s: %v", e.State, e.Kind, e.Cause)
	}
	return fmt.Sprintf("chat request failed in state %s: %s", e.State, e.Kind)
}

func (e *RequestError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

func failed(state State, kind, cause error) *RequestError {
	return &RequestError{State: state, Kind: kind, Cause: cause}
}
