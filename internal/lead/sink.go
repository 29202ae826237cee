package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/store"
)

const webhookTimeout = 10 * time.Second

// Sink persists captured leads and forwards them to the external CRM webhook.
// Both sides are best-effort: failures are logged and never surface in the
// user-facing reply.
type Sink struct {
	store      store.Store
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

func NewSink(st store.Store, webhookURL string, logger *zap.Logger) *Sink {
	return &Sink{
		store:      st,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		logger:     logger,
	}
}

// Capture writes the lead to the store and dispatches the webhook POST on a
// background goroutine so the reply path never waits on the CRM.
func (s *Sink) Capture(ctx context.Context, l store.Lead) {
	if err := s.store.InsertLead(ctx, l); err != nil {
		s.logger.Error("failed to persist lead",
			zap.String("email", l.Email),
			zap.Error(err))
	}

	if s.webhookURL == "" {
		return
	}
	go s.postWebhook(l)
}

func (s *Sink) postWebhook(l store.Lead) {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	payload, err := json.Marshal(l)
	if err != nil {
		s.logger.Error("failed to marshal lead webhook payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		s.logger.Error("failed to build lead webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("lead webhook POST failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("lead webhook rejected", zap.Int("status", resp.StatusCode))
	}
}
