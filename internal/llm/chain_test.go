package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChatProvider struct {
	chatReply    *Reply
	chatErr      error
	completeText string
	completeErr  error

	chatCalls     int
	completeCalls []string // prompts seen by Complete
}

func (f *fakeChatProvider) Name() string { return "fake-primary" }

func (f *fakeChatProvider) Chat(ctx context.Context, req ChatRequest) (*Reply, error) {
	f.chatCalls++
	return f.chatReply, f.chatErr
}

func (f *fakeChatProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.completeCalls = append(f.completeCalls, prompt)
	return f.completeText, f.completeErr
}

type fakeTextProvider struct {
	text    string
	err     error
	systems []string
	prompts []string
}

func (f *fakeTextProvider) Name() string { return "fake-fallback" }

func (f *fakeTextProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func testRequest() ChatRequest {
	return ChatRequest{
		System:  "persona",
		History: []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}},
		Pending: "tell me about your services",
		Tools:   []Tool{{Name: "create_order"}},
	}
}

func TestChainPrimarySuccess(t *testing.T) {
	primary := &fakeChatProvider{chatReply: &Reply{Text: "here you go"}}
	fallback := &fakeTextProvider{}
	chain := NewChain(primary, fallback, zap.NewNop())

	reply, err := chain.Invoke(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "here you go", reply.Text)
	assert.Equal(t, 1, primary.chatCalls)
	assert.Empty(t, primary.completeCalls)
	assert.Empty(t, fallback.prompts)
}

func TestChainAuthErrorEscalatesToFallbackWithoutHistory(t *testing.T) {
	primary := &fakeChatProvider{chatErr: &ProviderError{Provider: "fake-primary", Status: 403, Message: "invalid API key"}}
	fallback := &fakeTextProvider{text: "fallback answer"}
	chain := NewChain(primary, fallback, zap.NewNop())

	reply, err := chain.Invoke(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", reply.Text)
	assert.Nil(t, reply.ToolCall)

	// Degraded prompt: system text + pending message only, on the fallback
	// vendor. The primary must not be retried.
	require.Len(t, fallback.prompts, 1)
	assert.Equal(t, "tell me about your services", fallback.prompts[0])
	assert.Equal(t, "persona", fallback.systems[0])
	assert.Empty(t, primary.completeCalls)
}

func TestChainQuotaErrorByMessage(t *testing.T) {
	primary := &fakeChatProvider{chatErr: &ProviderError{Provider: "fake-primary", Status: 500, Message: "quota exceeded for project"}}
	fallback := &fakeTextProvider{text: "ok"}
	chain := NewChain(primary, fallback, zap.NewNop())

	reply, err := chain.Invoke(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	assert.Len(t, fallback.prompts, 1)
}

func TestChainBothVendorsFailIsDegradedClass(t *testing.T) {
	primary := &fakeChatProvider{chatErr: &ProviderError{Status: 429, Message: "rate limit"}}
	fallback := &fakeTextProvider{err: errors.New("fallback down")}
	chain := NewChain(primary, fallback, zap.NewNop())

	_, err := chain.Invoke(context.Background(), testRequest())
	var ie *InvokeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FailureDegraded, ie.Class)
}

func TestChainTransientErrorRetriesSameProviderStatelessly(t *testing.T) {
	primary := &fakeChatProvider{
		chatErr:      errors.New("connection reset"),
		completeText: "retry answer",
	}
	fallback := &fakeTextProvider{}
	chain := NewChain(primary, fallback, zap.NewNop())

	reply, err := chain.Invoke(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "retry answer", reply.Text)
	require.Len(t, primary.completeCalls, 1)
	assert.Equal(t, "tell me about your services", primary.completeCalls[0])
	assert.Empty(t, fallback.prompts, "transient errors must not reach the fallback vendor")
}

func TestChainTransientRetryFailureIsTransientClass(t *testing.T) {
	primary := &fakeChatProvider{
		chatErr:     errors.New("timeout"),
		completeErr: errors.New("timeout again"),
	}
	chain := NewChain(primary, &fakeTextProvider{}, zap.NewNop())

	_, err := chain.Invoke(context.Background(), testRequest())
	var ie *InvokeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, FailureTransient, ie.Class)
	assert.Equal(t, 1, primary.chatCalls, "no repeated Chat attempts")
}

func TestIsAuthOrQuota(t *testing.T) {
	assert.True(t, IsAuthOrQuota(&ProviderError{Status: 401}))
	assert.True(t, IsAuthOrQuota(&ProviderError{Status: 403}))
	assert.True(t, IsAuthOrQuota(&ProviderError{Status: 429}))
	assert.True(t, IsAuthOrQuota(&ProviderError{Status: 500, Message: "bad API key supplied"}))
	assert.False(t, IsAuthOrQuota(&ProviderError{Status: 500, Message: "internal error"}))
	assert.False(t, IsAuthOrQuota(errors.New("dial tcp: connection refused")))
}
