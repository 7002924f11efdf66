package weaviate

import (
	"sort"

	"ragcore/src/core/rag"
)

// rankEntries orders entries by descending similarity, breaking ties by
// ascending chunk ID so equal-scoring results come back in a stable order,
// then truncates to k.
func rankEntries(entries []rag.IndexEntry, k int) []rag.IndexEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Similarity != entries[j].Similarity {
			return entries[i].Similarity > entries[j].Similarity
		}
		return entries[i].ChunkID < entries[j].ChunkID
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
