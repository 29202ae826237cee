package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/core"
	"fiveplusone.studio/assistant/internal/llm"
	"fiveplusone.studio/assistant/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
	ragService  *core.RAGService
	store       store.Store
	zalo        *ZaloClient
	adminToken  string
	logger      *zap.Logger
}

func NewAPIHandler(cs *core.ChatService, rag *core.RAGService, st store.Store, zalo *ZaloClient, adminToken string, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		chatService: cs,
		ragService:  rag,
		store:       st,
		zalo:        zalo,
		adminToken:  adminToken,
		logger:      logger,
	}
}

// clientIP resolves the caller address the way the site's edge forwards it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return "unknown"
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// AdminAuthMiddleware guards knowledge-base management with a shared bearer
// token. When no token is configured the endpoints are disabled outright.
func (h *APIHandler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "knowledge base management is not configured"})
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ChatRequest struct {
	Messages  []llm.Turn `json:"messages"`
	Language  string     `json:"language,omitempty"`
	DeviceID  string     `json:"deviceId,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Content string              `json:"content"`
	Sources []core.ChunkSummary `json:"sources,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = "unknown"
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result := h.chatService.Process(r.Context(), core.ChatInput{
		Messages:  req.Messages,
		Language:  req.Language,
		DeviceID:  deviceID,
		SessionID: sessionID,
		IPAddress: clientIP(r),
	})

	status := http.StatusOK
	if result.Err != "" {
		// The body still carries displayable content; the status is for
		// monitoring only.
		status = http.StatusBadGateway
	}
	writeJSON(w, status, ChatResponse{
		Content: result.Content,
		Sources: result.Sources,
		Error:   result.Err,
	})
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing deviceId"})
		return
	}

	entries, err := h.store.HistoryAscending(r.Context(), deviceID, clientIP(r), 50)
	if err != nil {
		h.logger.Error("failed to fetch chat history", zap.String("deviceId", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch history"})
		return
	}

	messages := make([]historyMessage, 0, len(entries))
	for _, e := range entries {
		role := "assistant"
		if e.Role == "user" {
			role = "user"
		}
		messages = append(messages, historyMessage{Role: role, Content: e.Content})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type searchResult struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (h *APIHandler) KBSearchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	k := clampParam(r.URL.Query().Get("k"), 5, 1, 12)

	results := []searchResult{}
	if strings.TrimSpace(q) != "" {
		retrieval := h.ragService.Retrieve(r.Context(), q, k)
		for _, c := range retrieval.Chunks {
			results = append(results, searchResult{
				DocID:   c.DocID,
				Title:   c.Title,
				Source:  c.Source,
				Content: c.Content,
				Score:   c.Rank,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results})
}

type CreateDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

func (h *APIHandler) CreateDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title and content required"})
		return
	}

	chunks := store.ChunkText(req.Content, 0, 0)
	docID, err := h.store.InsertDocument(r.Context(), store.Document{
		Title:      req.Title,
		Source:     req.Source,
		ChunkCount: len(chunks),
	})
	if err != nil {
		h.logger.Error("failed to create document", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create document"})
		return
	}

	rows := make([]store.ChunkRow, 0, len(chunks))
	for i, ch := range chunks {
		rows = append(rows, store.ChunkRow{
			DocID:      docID,
			ChunkIndex: i,
			Title:      req.Title,
			Source:     req.Source,
			Content:    ch,
		})
	}
	if err := h.store.InsertChunks(r.Context(), rows); err != nil {
		h.logger.Error("failed to insert chunks, rolling back document", zap.String("docId", docID), zap.Error(err))
		if derr := h.store.DeleteDocument(r.Context(), docID); derr != nil {
			h.logger.Error("rollback failed", zap.String("docId", docID), zap.Error(derr))
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to index document"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": docID, "chunk_count": len(chunks)})
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	limit := clampParam(r.URL.Query().Get("limit"), 50, 1, 200)
	docs, err := h.store.ListDocuments(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list documents"})
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	if err := h.store.DeleteDocumentChunks(r.Context(), docID); err != nil {
		h.logger.Error("failed to delete document chunks", zap.String("docId", docID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete document"})
		return
	}
	if err := h.store.DeleteDocument(r.Context(), docID); err != nil {
		h.logger.Error("failed to delete document", zap.String("docId", docID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete document"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clampParam(raw string, def, min, max int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
