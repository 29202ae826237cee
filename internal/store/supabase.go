package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const searchChunksRPC = "search_kb_chunks"

// SupabaseStore implements Store against the hosted Supabase project.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}

	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) SearchChunks(ctx context.Context, tsQuery string, k int) ([]KnowledgeChunk, error) {
	body := map[string]any{
		"search_query": tsQuery,
		"match_count":  k,
	}
	raw := s.client.Rpc(searchChunksRPC, "", body)
	if raw == "" {
		return nil, fmt.Errorf("rpc %s returned no data", searchChunksRPC)
	}

	var chunks []KnowledgeChunk
	if err := json.Unmarshal([]byte(raw), &chunks); err != nil {
		// PostgREST reports errors as a JSON object, which fails to
		// unmarshal into a slice.
		return nil, fmt.Errorf("rpc %s failed: %s", searchChunksRPC, raw)
	}
	return chunks, nil
}

func (s *SupabaseStore) MatchChunks(ctx context.Context, raw string, k int) ([]KnowledgeChunk, error) {
	var chunks []KnowledgeChunk
	_, err := s.client.From("kb_chunks").
		Select("id, doc_id, title, source, content", "", false).
		Ilike("content", "%"+raw+"%").
		Limit(k, "").
		ExecuteTo(&chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to match kb_chunks: %w", err)
	}
	return chunks, nil
}

func (s *SupabaseStore) RecentHistory(ctx context.Context, deviceID, ipAddress string, limit int) ([]HistoryEntry, error) {
	return s.history(deviceID, ipAddress, limit, false)
}

func (s *SupabaseStore) HistoryAscending(ctx context.Context, deviceID, ipAddress string, limit int) ([]HistoryEntry, error) {
	return s.history(deviceID, ipAddress, limit, true)
}

func (s *SupabaseStore) history(deviceID, ipAddress string, limit int, ascending bool) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	filter := fmt.Sprintf("device_id.eq.%s,ip_address.eq.%s", deviceID, ipAddress)
	_, err := s.client.From("chat_history").
		Select("role, content, created_at", "", false).
		Or(filter, "").
		Order("created_at", &postgrest.OrderOpts{Ascending: ascending}).
		Limit(limit, "").
		ExecuteTo(&entries)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat_history: %w", err)
	}
	return entries, nil
}

func (s *SupabaseStore) AppendHistory(ctx context.Context, entries []HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	_, _, err := s.client.From("chat_history").
		Insert(entries, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert chat_history rows: %w", err)
	}
	return nil
}

func (s *SupabaseStore) KnowledgeBase(ctx context.Context, language string) (string, error) {
	var setting struct {
		Value string `json:"value"`
	}
	_, err := s.client.From("chatbot_settings").
		Select("value", "", false).
		Eq("key", "knowledge_base_"+language).
		Single().
		ExecuteTo(&setting)
	if err != nil {
		return "", fmt.Errorf("failed to read chatbot_settings: %w", err)
	}
	return setting.Value, nil
}

func (s *SupabaseStore) InsertLead(ctx context.Context, lead Lead) error {
	row := map[string]string{
		"name":    lead.Name,
		"email":   lead.Email,
		"phone":   lead.Phone,
		"message": lead.Message,
	}
	_, _, err := s.client.From("contact_messages").
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (s *SupabaseStore) InsertDocument(ctx context.Context, doc Document) (string, error) {
	row := map[string]any{
		"title":       doc.Title,
		"source":      doc.Source,
		"chunk_count": doc.ChunkCount,
	}
	var inserted []Document
	_, err := s.client.From("kb_documents").
		Insert(row, false, "", "representation", "").
		ExecuteTo(&inserted)
	if err != nil {
		return "", fmt.Errorf("failed to insert kb_document: %w", err)
	}
	if len(inserted) == 0 {
		return "", fmt.Errorf("kb_document insert returned no row")
	}
	return inserted[0].ID, nil
}

func (s *SupabaseStore) InsertChunks(ctx context.Context, rows []ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, _, err := s.client.From("kb_chunks").
		Insert(rows, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert kb_chunks: %w", err)
	}
	return nil
}

func (s *SupabaseStore) DeleteDocumentChunks(ctx context.Context, docID string) error {
	_, _, err := s.client.From("kb_chunks").
		Delete("", "").
		Eq("doc_id", docID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete kb_chunks for document %s: %w", docID, err)
	}
	return nil
}

func (s *SupabaseStore) DeleteDocument(ctx context.Context, docID string) error {
	_, _, err := s.client.From("kb_documents").
		Delete("", "").
		Eq("id", docID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete kb_document %s: %w", docID, err)
	}
	return nil
}

func (s *SupabaseStore) ListDocuments(ctx context.Context, limit int) ([]Document, error) {
	var docs []Document
	_, err := s.client.From("kb_documents").
		Select("id, title, source, chunk_count, created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		ExecuteTo(&docs)
	if err != nil {
		return nil, fmt.Errorf("failed to list kb_documents: %w", err)
	}
	return docs, nil
}

// Compile-time check that SupabaseStore implements Store.
var _ Store = (*SupabaseStore)(nil)
