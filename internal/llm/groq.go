package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	groqEndpoint     = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel = "llama-3.3-70b-versatile"
)

// GroqProvider talks to Groq's OpenAI-compatible chat-completions API.
type GroqProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *GroqProvider) Name() string { return "groq" }

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type groqTool struct {
	Type     string       `json:"type"`
	Function groqFunction `json:"function"`
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Tools       []groqTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *GroqProvider) Chat(ctx context.Context, req ChatRequest) (*Reply, error) {
	messages := make([]groqMessage, 0, len(req.History)+2)
	messages = append(messages, groqMessage{Role: "system", Content: req.System})
	for _, t := range req.History {
		messages = append(messages, groqMessage{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Pending})

	body := groqRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, groqTool{
			Type: "function",
			Function: groqFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	out, err := p.send(ctx, body)
	if err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Status: 200, Message: "empty choices in response"}
	}

	msg := out.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return &Reply{
			Text: msg.Content,
			ToolCall: &ToolCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		}, nil
	}
	return &Reply{Text: msg.Content}, nil
}

func (p *GroqProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	body := groqRequest{
		Model: p.model,
		Messages: []groqMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}

	out, err := p.send(ctx, body)
	if err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Status: 200, Message: "empty choices in response"}
	}
	return out.Choices[0].Message.Content, nil
}

func (p *GroqProvider) send(ctx context.Context, body groqRequest) (*groqResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal groq request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build groq request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		msg := e.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, &ProviderError{Provider: p.Name(), Status: resp.StatusCode, Message: msg}
	}

	var out groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode groq response: %w", err)
	}
	return &out, nil
}
