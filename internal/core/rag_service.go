package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/store"
	"fiveplusone.studio/assistant/internal/utils"
)

const (
	// MaxContextChars bounds the assembled RAG context so the system
	// instruction stays within a predictable prompt budget.
	MaxContextChars = 2500

	DefaultTopK = 6
	minTopK     = 1
	maxTopK     = 12
)

// synonymExpansions maps accent-stripped Vietnamese phrases to the English
// tokens the knowledge base is indexed under.
var synonymExpansions = map[string][]string{
	"dich vu":    {"services", "service"},
	"dich vu gi": {"services"},
	"lien he":    {"contact", "email", "phone", "address"},
	"du an":      {"projects", "project"},
	"gioi thieu": {"about"},
	"kien truc":  {"architectural", "architecture"},
	"noi that":   {"interior"},
	"quy hoach":  {"urbanism", "planning"},
	"gia":        {"price", "cost", "budget"},
	"bao gia":    {"quotation", "quote", "estimate"},
}

// ExpandQuery normalizes a free-text query into a search query string:
// the raw query, its accent-stripped variant when different, and the sorted
// union of matched synonym tokens. Empty input expands to "" and callers
// must treat that as "no search".
func ExpandQuery(query string) string {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return ""
	}

	qLower := strings.ToLower(raw)
	qASCII := utils.StripAccents(qLower)

	seen := make(map[string]bool)
	var extra []string
	for phrase, tokens := range synonymExpansions {
		if !strings.Contains(qASCII, phrase) {
			continue
		}
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				extra = append(extra, tok)
			}
		}
	}
	sort.Strings(extra)

	parts := []string{raw}
	if qASCII != qLower {
		parts = append(parts, qASCII)
	}
	if len(extra) > 0 {
		parts = append(parts, strings.Join(extra, " "))
	}
	return strings.Join(parts, " ")
}

// Retrieval is the result of one knowledge lookup: the matched chunks and the
// formatted context block, both scoped to a single request.
type Retrieval struct {
	Chunks  []store.KnowledgeChunk
	Context string
}

type RAGService struct {
	store  store.Store
	logger *zap.Logger
}

func NewRAGService(st store.Store, logger *zap.Logger) *RAGService {
	return &RAGService{store: st, logger: logger}
}

// Retrieve fetches the top-k passages for a query: ranked full-text search
// first, naive substring match when that fails or comes back empty. Retrieval
// never aborts a chat turn; every failure degrades to an empty Retrieval.
func (s *RAGService) Retrieve(ctx context.Context, query string, k int) Retrieval {
	if k < minTopK {
		k = DefaultTopK
	}
	if k > maxTopK {
		k = maxTopK
	}

	expanded := ExpandQuery(query)
	if expanded == "" {
		return Retrieval{}
	}
	tsQuery := strings.Join(strings.Fields(expanded), " | ")

	chunks, err := s.store.SearchChunks(ctx, tsQuery, k)
	if err != nil || len(chunks) == 0 {
		if err != nil {
			s.logger.Warn("ranked search failed, falling back to substring match", zap.Error(err))
		}
		chunks, err = s.store.MatchChunks(ctx, strings.TrimSpace(query), k)
		if err != nil {
			s.logger.Warn("substring fallback failed, proceeding without context", zap.Error(err))
			return Retrieval{}
		}
	}
	if len(chunks) == 0 {
		return Retrieval{}
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Rank > chunks[j].Rank })

	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		title := c.Title
		if title == "" {
			title = "Untitled"
		}
		if c.Source != "" {
			fmt.Fprintf(&b, "[Source: %s | %s]\n%s", title, c.Source, c.Content)
		} else {
			fmt.Fprintf(&b, "[Source: %s]\n%s", title, c.Content)
		}
	}

	return Retrieval{Chunks: chunks, Context: truncate(b.String(), MaxContextChars)}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
