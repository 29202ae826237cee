package store

import "strings"

const (
	defaultChunkSize    = 900
	defaultChunkOverlap = 150
)

// ChunkText splits document text into overlapping windows for indexing.
// Windows are chunkSize runs of bytes with chunkOverlap carried between
// adjacent windows; leading/trailing whitespace is trimmed per chunk and
// empty chunks are dropped.
func ChunkText(text string, chunkSize, overlap int) []string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultChunkOverlap
	}

	var chunks []string
	n := len(cleaned)
	i := 0
	for i < n {
		j := i + chunkSize
		if j > n {
			j = n
		}
		if chunk := strings.TrimSpace(cleaned[i:j]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if j == n {
			break
		}
		i = j - overlap
	}
	return chunks
}
