package rag_test

import (
	"strings"
	"testing"

	"ragcore/src/core/rag"
)

func promptEntries(texts ...string) []rag.IndexEntry {
	entries := make([]rag.IndexEntry, 0, len(texts))
	for i, text := range texts {
		entries = append(entries, rag.IndexEntry{
			ChunkID:    text,
			Text:       text,
			Similarity: 1.0 - float64(i)*0.1,
		})
	}
	return entries
}

func TestAssemblePromptIncludesEverythingUnderBudget(t *testing.T) {
	history := []rag.Turn{
		{Role: rag.RoleUser, Content: "earlier question"},
		{Role: rag.RoleAssistant, Content: "earlier answer"},
	}
	entries := promptEntries("passage one", "passage two")

	prompt, used, err := rag.AssemblePrompt("current question", history, entries, 10000, 10)
	if err != nil {
		t.Fatalf("AssemblePrompt returned error: %v", err)
	}
	if len(used) != 2 {
		t.Errorf("kept %d entries, want 2", len(used))
	}
	for _, want := range []string{"passage one", "passage two", "earlier question", "earlier answer", "current question"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAssemblePromptDropsOldestHistoryFirst(t *testing.T) {
	history := []rag.Turn{
		{Role: rag.RoleUser, Content: strings.Repeat("old ", 100)},
		{Role: rag.RoleAssistant, Content: "recent answer"},
	}
	entries := promptEntries("kept passage")

	full, _, err := rag.AssemblePrompt("q", history, entries, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	// A budget just below the full render forces exactly one drop.
	budget := len([]rune(full)) - 1

	prompt, used, err := rag.AssemblePrompt("q", history, entries, budget, 10)
	if err != nil {
		t.Fatalf("AssemblePrompt returned error: %v", err)
	}
	if strings.Contains(prompt, "old old") {
		t.Error("oldest history turn not dropped first")
	}
	if !strings.Contains(prompt, "recent answer") {
		t.Error("recent history turn dropped before the oldest")
	}
	if len(used) != 1 {
		t.Errorf("chunks dropped before history: kept %d entries, want 1", len(used))
	}
}

func TestAssemblePromptDropsLowestSimilarityChunkAfterHistory(t *testing.T) {
	entries := promptEntries("best passage", strings.Repeat("worst ", 100))

	full, _, err := rag.AssemblePrompt("q", nil, entries, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	budget := len([]rune(full)) - 1

	prompt, used, err := rag.AssemblePrompt("q", nil, entries, budget, 10)
	if err != nil {
		t.Fatalf("AssemblePrompt returned error: %v", err)
	}
	if len(used) != 1 {
		t.Fatalf("kept %d entries, want 1", len(used))
	}
	if used[0].Text != "best passage" {
		t.Errorf("kept the wrong entry: %q", used[0].Text)
	}
	if strings.Contains(prompt, "worst") {
		t.Error("dropped entry still present in prompt")
	}
}

func TestAssemblePromptHistoryLimit(t *testing.T) {
	history := make([]rag.Turn, 6)
	for i := range history {
		history[i] = rag.Turn{Role: rag.RoleUser, Content: "turn" + string(rune('a'+i))}
	}

	prompt, _, err := rag.AssemblePrompt("q", history, nil, 10000, 2)
	if err != nil {
		t.Fatalf("AssemblePrompt returned error: %v", err)
	}
	if strings.Contains(prompt, "turna") {
		t.Error("history limit kept a turn older than the limit")
	}
	for _, want := range []string{"turne", "turnf"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("history limit dropped a recent turn %q", want)
		}
	}
}

func TestAssemblePromptQueryExceedsBudget(t *testing.T) {
	_, _, err := rag.AssemblePrompt(strings.Repeat("long query ", 50), nil, nil, 20, 10)
	if err == nil {
		t.Fatal("AssemblePrompt accepted a query that cannot fit the budget")
	}
}

func TestAssemblePromptDeterministic(t *testing.T) {
	history := []rag.Turn{{Role: rag.RoleUser, Content: "hi"}}
	entries := promptEntries("alpha", "beta", "gamma")

	first, _, err := rag.AssemblePrompt("q", history, entries, 10000, 10)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := rag.AssemblePrompt("q", history, entries, 10000, 10)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("identical inputs rendered different prompts")
	}
}
