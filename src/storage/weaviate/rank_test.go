package weaviate

import (
	"testing"

	"ragcore/src/core/rag"
)

func TestRankEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []rag.IndexEntry
		k       int
		want    []string
	}{
		{
			name: "orders by descending similarity",
			entries: []rag.IndexEntry{
				{ChunkID: "1-00000", Similarity: 0.5},
				{ChunkID: "1-00001", Similarity: 0.9},
				{ChunkID: "1-00002", Similarity: 0.7},
			},
			k:    3,
			want: []string{"1-00001", "1-00002", "1-00000"},
		},
		{
			name: "ties break by ascending chunk id",
			entries: []rag.IndexEntry{
				{ChunkID: "2-00003", Similarity: 0.8},
				{ChunkID: "1-00001", Similarity: 0.8},
				{ChunkID: "1-00002", Similarity: 0.8},
			},
			k:    3,
			want: []string{"1-00001", "1-00002", "2-00003"},
		},
		{
			name: "truncates to k",
			entries: []rag.IndexEntry{
				{ChunkID: "1-00000", Similarity: 0.9},
				{ChunkID: "1-00001", Similarity: 0.8},
				{ChunkID: "1-00002", Similarity: 0.7},
				{ChunkID: "1-00003", Similarity: 0.6},
			},
			k:    2,
			want: []string{"1-00000", "1-00001"},
		},
		{
			name: "fewer matches than k",
			entries: []rag.IndexEntry{
				{ChunkID: "1-00000", Similarity: 0.9},
			},
			k:    3,
			want: []string{"1-00000"},
		},
		{
			name:    "no matches",
			entries: nil,
			k:       5,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rankEntries(tt.entries, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("rankEntries returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ChunkID != id {
					t.Errorf("entry %d = %q, want %q", i, got[i].ChunkID, id)
				}
			}
		})
	}
}

func TestObjectIDDeterministic(t *testing.T) {
	first := objectID("42-00007")
	second := objectID("42-00007")
	other := objectID("42-00008")

	if first != second {
		t.Errorf("objectID not deterministic: %s vs %s", first, second)
	}
	if first == other {
		t.Errorf("distinct chunk IDs mapped to the same object ID: %s", first)
	}
}
