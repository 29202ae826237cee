package lead

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/store"
)

type fakeStore struct {
	store.Store
	leads     []store.Lead
	insertErr error
}

func (f *fakeStore) InsertLead(ctx context.Context, l store.Lead) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.leads = append(f.leads, l)
	return nil
}

func testLead() store.Lead {
	return store.Lead{
		Name:    "An Nguyen",
		Email:   "an@example.com",
		Phone:   "0901234567",
		Message: "Villa renovation",
		Source:  "Chatbot AI (Groq)",
	}
}

func TestCapturePersistsAndPostsWebhook(t *testing.T) {
	received := make(chan store.Lead, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var l store.Lead
		require.NoError(t, json.NewDecoder(r.Body).Decode(&l))
		received <- l
	}))
	defer srv.Close()

	st := &fakeStore{}
	sink := NewSink(st, srv.URL, zap.NewNop())
	sink.Capture(context.Background(), testLead())

	require.Len(t, st.leads, 1)
	select {
	case l := <-received:
		assert.Equal(t, "An Nguyen", l.Name)
		assert.Equal(t, "Chatbot AI (Groq)", l.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}
}

func TestCaptureWithoutWebhookURL(t *testing.T) {
	st := &fakeStore{}
	sink := NewSink(st, "", zap.NewNop())
	sink.Capture(context.Background(), testLead())
	assert.Len(t, st.leads, 1)
}

func TestCaptureSwallowsStoreFailure(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer srv.Close()

	st := &fakeStore{insertErr: errors.New("db down")}
	sink := NewSink(st, srv.URL, zap.NewNop())

	// Must not panic or propagate; the webhook still fires.
	sink.Capture(context.Background(), testLead())
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}
}
