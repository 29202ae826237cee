package store

import "context"

// Store provides access to the hosted backend for chat pipeline operations.
type Store interface {
	// SearchChunks runs the ranked full-text search RPC over kb_chunks.
	// tsQuery is a tsquery expression ("term | term | ...").
	SearchChunks(ctx context.Context, tsQuery string, k int) ([]KnowledgeChunk, error)

	// MatchChunks is the naive case-insensitive substring fallback over kb_chunks.
	MatchChunks(ctx context.Context, raw string, k int) ([]KnowledgeChunk, error)

	// RecentHistory returns the most recent history entries matching
	// device_id OR ip_address, newest first.
	RecentHistory(ctx context.Context, deviceID, ipAddress string, limit int) ([]HistoryEntry, error)

	// HistoryAscending returns history entries oldest first, for the
	// history read endpoint.
	HistoryAscending(ctx context.Context, deviceID, ipAddress string, limit int) ([]HistoryEntry, error)

	// AppendHistory inserts the given entries into chat_history.
	AppendHistory(ctx context.Context, entries []HistoryEntry) error

	// KnowledgeBase fetches the persona text for a language key
	// (knowledge_base_<language>). Returns "" when the key is absent.
	KnowledgeBase(ctx context.Context, language string) (string, error)

	// InsertLead writes a captured lead into contact_messages.
	InsertLead(ctx context.Context, lead Lead) error

	// InsertDocument creates a kb_documents row and returns its id.
	InsertDocument(ctx context.Context, doc Document) (string, error)

	// InsertChunks inserts the chunk rows for a document.
	InsertChunks(ctx context.Context, rows []ChunkRow) error

	// DeleteDocumentChunks removes all kb_chunks rows for a document.
	DeleteDocumentChunks(ctx context.Context, docID string) error

	// DeleteDocument removes a kb_documents row.
	DeleteDocument(ctx context.Context, docID string) error

	// ListDocuments returns recent documents, newest first.
	ListDocuments(ctx context.Context, limit int) ([]Document, error)
}
