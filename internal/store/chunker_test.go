package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, ChunkText("", 900, 150))
	assert.Nil(t, ChunkText("   \n\t  ", 900, 150))
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := ChunkText("  a short document  ", 900, 150)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestChunkTextWindowsAndOverlap(t *testing.T) {
	text := strings.Repeat("x", 2000)
	chunks := ChunkText(text, 900, 150)

	// Windows advance by chunkSize-overlap = 750: [0,900) [750,1650) [1500,2000)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 900)
	assert.Len(t, chunks[1], 900)
	assert.Len(t, chunks[2], 500)
}

func TestChunkTextNoChunkExceedsSize(t *testing.T) {
	text := strings.Repeat("abc ", 1000)
	for _, c := range ChunkText(text, 300, 50) {
		assert.LessOrEqual(t, len(c), 300)
	}
}

func TestChunkTextBadParamsFallBackToDefaults(t *testing.T) {
	text := strings.Repeat("y", 1000)
	chunks := ChunkText(text, 0, -1)
	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], defaultChunkSize)
}
