package store

import "time"

// KnowledgeChunk is one retrievable passage from the knowledge base.
// Rank is the full-text search score; zero for substring-fallback hits.
type KnowledgeChunk struct {
	ID         int64   `json:"id"`
	DocID      string  `json:"doc_id"`
	ChunkIndex int     `json:"chunk_index"`
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Rank       float64 `json:"rank"`
}

// HistoryEntry is one persisted conversation turn. Rows are append-only;
// retrieval matches device_id OR ip_address.
type HistoryEntry struct {
	SessionID string    `json:"session_id"`
	DeviceID  string    `json:"device_id"`
	IPAddress string    `json:"ip_address"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Lead is a captured sales lead destined for contact_messages and the CRM webhook.
type Lead struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// Document is a knowledge-base document header; its text lives in kb_chunks.
type Document struct {
	ID         string    `json:"id,omitempty"`
	Title      string    `json:"title"`
	Source     string    `json:"source,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// ChunkRow is the insert shape for one kb_chunks row.
type ChunkRow struct {
	DocID      string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	Title      string `json:"title"`
	Source     string `json:"source,omitempty"`
	Content    string `json:"content"`
}
