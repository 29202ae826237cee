package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/store"
)

func TestExpandQueryEmpty(t *testing.T) {
	assert.Equal(t, "", ExpandQuery(""))
	assert.Equal(t, "", ExpandQuery("   \t "))
}

func TestExpandQueryPlainASCII(t *testing.T) {
	// No accents, no synonym hits: the query passes through unchanged.
	assert.Equal(t, "hello world", ExpandQuery("hello world"))
}

func TestExpandQueryAccentVariant(t *testing.T) {
	expanded := ExpandQuery("kiến trúc")
	parts := strings.SplitN(expanded, " ", 5)
	require.GreaterOrEqual(t, len(parts), 4)
	assert.Equal(t, "kiến", parts[0])
	assert.Contains(t, expanded, "kien truc", "accent-stripped variant included")
	assert.Contains(t, expanded, "architectural architecture", "sorted synonym tokens appended")
}

func TestExpandQuerySynonymUnionDeduplicated(t *testing.T) {
	// "dịch vụ gì" matches both "dich vu" and "dich vu gi"; the shared
	// "services" token must appear once, tokens sorted.
	expanded := ExpandQuery("dịch vụ gì")
	assert.Equal(t, 1, strings.Count(expanded, "services"))
	assert.True(t, strings.HasSuffix(expanded, "service services"))
}

func TestRetrieveRankedPath(t *testing.T) {
	st := &fakeStore{
		searchChunks: []store.KnowledgeChunk{
			{DocID: "d2", Title: "Projects", Content: "Tho house", Rank: 0.2},
			{DocID: "d1", Title: "Services", Source: "site", Content: "architecture and interiors", Rank: 0.9},
		},
	}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "dịch vụ", DefaultTopK)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, "d1", res.Chunks[0].DocID, "chunks ordered by descending rank")
	assert.Contains(t, res.Context, "[Source: Services | site]\narchitecture and interiors")
	assert.Contains(t, res.Context, "[Source: Projects]\nTho house")
	assert.Contains(t, st.searchQuery, " | ", "tokens joined with the OR operator")
}

func TestRetrieveFallbackOnSearchError(t *testing.T) {
	st := &fakeStore{
		searchErr: errors.New("rpc unavailable"),
		matchChunks: []store.KnowledgeChunk{
			{DocID: "d1", Title: "About", Content: "studio founded by Kosuke Osawa"},
		},
	}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "Kosuke", DefaultTopK)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, "Kosuke", st.matchQuery, "fallback uses the raw query, not the expansion")
	assert.NotEmpty(t, res.Context)
}

func TestRetrieveFallbackOnZeroResults(t *testing.T) {
	st := &fakeStore{
		matchChunks: []store.KnowledgeChunk{{DocID: "d1", Title: "T", Content: "c"}},
	}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "anything", DefaultTopK)
	assert.Len(t, res.Chunks, 1)
}

func TestRetrieveBothPhasesFailDegradesToEmpty(t *testing.T) {
	st := &fakeStore{
		searchErr: errors.New("down"),
		matchErr:  errors.New("also down"),
	}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "anything", DefaultTopK)
	assert.Empty(t, res.Chunks)
	assert.Empty(t, res.Context)
}

func TestRetrieveEmptyQueryMeansNoSearch(t *testing.T) {
	st := &fakeStore{searchErr: errors.New("must not be called")}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "   ", DefaultTopK)
	assert.Empty(t, res.Chunks)
	assert.Empty(t, st.searchQuery)
}

func TestRetrieveContextTruncation(t *testing.T) {
	var chunks []store.KnowledgeChunk
	for i := 0; i < 12; i++ {
		chunks = append(chunks, store.KnowledgeChunk{
			Title:   "Chunk",
			Content: strings.Repeat("x", 800),
			Rank:    float64(12 - i),
		})
	}
	st := &fakeStore{searchChunks: chunks}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "services", maxTopK)
	assert.LessOrEqual(t, len(res.Context), MaxContextChars)
}

func TestRetrieveClampsK(t *testing.T) {
	st := &fakeStore{
		searchChunks: make([]store.KnowledgeChunk, 0),
	}
	for i := 0; i < 30; i++ {
		st.searchChunks = append(st.searchChunks, store.KnowledgeChunk{Title: "T", Content: "c"})
	}
	rag := NewRAGService(st, zap.NewNop())

	res := rag.Retrieve(context.Background(), "services", 100)
	assert.LessOrEqual(t, len(res.Chunks), maxTopK)

	res = rag.Retrieve(context.Background(), "services", 0)
	assert.LessOrEqual(t, len(res.Chunks), DefaultTopK)
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("ệ", 100) // 3 bytes each
	out := truncate(s, 100)
	assert.LessOrEqual(t, len(out), 100)
	assert.True(t, strings.HasSuffix(out, "ệ"))
}
