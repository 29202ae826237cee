package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/lead"
	"fiveplusone.studio/assistant/internal/llm"
	"fiveplusone.studio/assistant/internal/store"
)

const (
	historyReadLimit = 10
	invokeTimeout    = 15 * time.Second
	maxSources       = 4
	leadToolName     = "create_order"
	leadSourceLabel  = "Chatbot AI (Groq)"
)

// ChatInput is one inbound chat turn.
type ChatInput struct {
	Messages  []llm.Turn
	Language  string // "vi" or "en"
	DeviceID  string
	SessionID string
	IPAddress string
}

// ChunkSummary is the caller-facing citation for one retrieved passage.
type ChunkSummary struct {
	DocID  string  `json:"doc_id"`
	Title  string  `json:"title"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// ChatResult always carries displayable content, even when the turn failed.
type ChatResult struct {
	Content string
	Sources []ChunkSummary
	// Err is a monitoring label set when Content is a static apology.
	Err string
}

type ChatService struct {
	store  store.Store
	rag    *RAGService
	chain  *llm.Chain
	leads  *lead.Sink
	logger *zap.Logger
}

func NewChatService(st store.Store, rag *RAGService, chain *llm.Chain, leads *lead.Sink, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:  st,
		rag:    rag,
		chain:  chain,
		leads:  leads,
		logger: logger,
	}
}

// sanitizeTurns drops empty turns and folds every non-user role into the
// canonical assistant role.
func sanitizeTurns(raw []llm.Turn) []llm.Turn {
	out := make([]llm.Turn, 0, len(raw))
	for _, t := range raw {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		role := llm.RoleAssistant
		if t.Role == llm.RoleUser {
			role = llm.RoleUser
		}
		out = append(out, llm.Turn{Role: role, Content: content})
	}
	return out
}

// normalizeConversation reduces sanitized turns to a strictly alternating
// history starting with user, plus the pending user message popped off the
// tail. Adjacent same-role turns are merged with a newline; leading
// assistant turns are dropped because providers require history to start
// with user. An empty pending string means no valid message survived.
func normalizeConversation(turns []llm.Turn) (history []llm.Turn, pending string) {
	var coalesced []llm.Turn
	for _, t := range turns {
		if n := len(coalesced); n > 0 && coalesced[n-1].Role == t.Role {
			coalesced[n-1].Content += "\n" + t.Content
			continue
		}
		coalesced = append(coalesced, t)
	}

	start := 0
	for start < len(coalesced) && coalesced[start].Role != llm.RoleUser {
		start++
	}
	coalesced = coalesced[start:]
	if len(coalesced) == 0 {
		return nil, ""
	}

	last := coalesced[len(coalesced)-1]
	history = coalesced[:len(coalesced)-1]
	pending = last.Content

	// A trailing user turn left at the end of history is folded forward
	// into the pending message so history always ends in assistant.
	if n := len(history); n > 0 && history[n-1].Role == llm.RoleUser {
		pending = history[n-1].Content + "\n" + pending
		history = history[:n-1]
	}
	return history, pending
}

// mergeHistory reconciles persisted history with the turns supplied in the
// request. A caller sending more than one turn already tracks its own
// context and is trusted as-is; a stateless caller's lone message is
// prepended with persisted history unless it merely repeats the last
// persisted entry.
func mergeHistory(persisted, incoming []llm.Turn) []llm.Turn {
	if len(incoming) > 1 || len(persisted) == 0 {
		return incoming
	}
	if len(incoming) == 1 && persisted[len(persisted)-1].Content == incoming[0].Content {
		return persisted
	}
	return append(append([]llm.Turn{}, persisted...), incoming...)
}

func (s *ChatService) persistedHistory(ctx context.Context, deviceID, ipAddress string) []llm.Turn {
	entries, err := s.store.RecentHistory(ctx, deviceID, ipAddress, historyReadLimit)
	if err != nil {
		s.logger.Warn("failed to fetch chat history, proceeding without it", zap.Error(err))
		return nil
	}

	// Store returns newest first; replay oldest first.
	turns := make([]llm.Turn, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if strings.TrimSpace(e.Content) == "" {
			continue
		}
		role := llm.RoleAssistant
		if e.Role == "user" {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Content: e.Content})
	}
	return turns
}

func (s *ChatService) knowledgeBase(ctx context.Context, language string) string {
	text, err := s.store.KnowledgeBase(ctx, language)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("failed to fetch knowledge base, using default", zap.Error(err))
		}
		return DefaultKnowledgeBase(language)
	}
	return text
}

func leadTool() llm.Tool {
	return llm.Tool{
		Name:        leadToolName,
		Description: "Sends customer lead information to the CRM system.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"email":   map[string]any{"type": "string"},
				"phone":   map[string]any{"type": "string"},
				"message": map[string]any{"type": "string"},
			},
			"required": []string{"name", "email", "phone", "message"},
		},
	}
}

// parseLead decodes create_order arguments and requires all four fields to
// be non-empty; a partial lead is never forwarded to the sink.
func parseLead(arguments string) (store.Lead, bool) {
	var args struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return store.Lead{}, false
	}
	l := store.Lead{
		Name:    strings.TrimSpace(args.Name),
		Email:   strings.TrimSpace(args.Email),
		Phone:   strings.TrimSpace(args.Phone),
		Message: strings.TrimSpace(args.Message),
		Source:  leadSourceLabel,
	}
	if l.Name == "" || l.Email == "" || l.Phone == "" || l.Message == "" {
		return store.Lead{}, false
	}
	return l, true
}

// Process runs one chat turn through the pipeline:
// normalize -> merge -> retrieve -> assemble -> invoke -> sink/write.
func (s *ChatService) Process(ctx context.Context, input ChatInput) ChatResult {
	language := input.Language
	if language != "en" {
		language = "vi"
	}

	knowledgeBase := s.knowledgeBase(ctx, language)
	persisted := s.persistedHistory(ctx, input.DeviceID, input.IPAddress)
	incoming := sanitizeTurns(input.Messages)

	history, pending := normalizeConversation(mergeHistory(persisted, incoming))
	if pending == "" {
		return ChatResult{Content: greeting(language)}
	}

	retrieval := s.rag.Retrieve(ctx, pending, DefaultTopK)

	sources := make([]ChunkSummary, 0, maxSources)
	for _, c := range retrieval.Chunks {
		if len(sources) == maxSources {
			break
		}
		sources = append(sources, ChunkSummary{
			DocID:  c.DocID,
			Title:  c.Title,
			Source: c.Source,
			Score:  c.Rank,
		})
	}

	req := llm.ChatRequest{
		System:  AssemblePrompt(knowledgeBase, retrieval.Context, language),
		History: history,
		Pending: pending,
		Tools:   []llm.Tool{leadTool()},
	}

	invokeCtx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	reply, err := s.chain.Invoke(invokeCtx, req)
	if err != nil {
		var ie *llm.InvokeError
		content := apologyTransient(language)
		if errors.As(err, &ie) && ie.Class == llm.FailureDegraded {
			content = apologyDegraded(language)
		}
		s.logger.Error("chat turn failed across all providers", zap.Error(err))
		return ChatResult{Content: content, Err: "assistant temporarily unavailable"}
	}

	if reply.ToolCall != nil && reply.ToolCall.Name == leadToolName {
		l, ok := parseLead(reply.ToolCall.Arguments)
		if !ok {
			s.logger.Warn("model emitted incomplete create_order call, not forwarding",
				zap.String("arguments", reply.ToolCall.Arguments))
			content := strings.TrimSpace(reply.Text)
			if content == "" {
				content = leadDetailsPrompt(language)
			}
			s.writeHistory(ctx, input, pending, content)
			return ChatResult{Content: content, Sources: sources}
		}

		s.leads.Capture(ctx, l)
		// Templated confirmation, not model text: deliberately kept out
		// of chat_history.
		return ChatResult{Content: leadConfirmation(language, l.Name)}
	}

	content := reply.Text
	s.writeHistory(ctx, input, pending, content)
	return ChatResult{Content: content, Sources: sources}
}

// writeHistory appends the user's pending message and the assistant reply.
// Failures are logged only; persistence never alters the reply.
func (s *ChatService) writeHistory(ctx context.Context, input ChatInput, userContent, assistantContent string) {
	entries := []store.HistoryEntry{
		{
			SessionID: input.SessionID,
			DeviceID:  input.DeviceID,
			IPAddress: input.IPAddress,
			Role:      "user",
			Content:   userContent,
		},
		{
			SessionID: input.SessionID,
			DeviceID:  input.DeviceID,
			IPAddress: input.IPAddress,
			Role:      "assistant",
			Content:   assistantContent,
		},
	}
	if err := s.store.AppendHistory(ctx, entries); err != nil {
		s.logger.Error("failed to append chat history", zap.Error(err))
	}
}
