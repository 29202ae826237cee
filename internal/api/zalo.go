package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"fiveplusone.studio/assistant/internal/core"
	"fiveplusone.studio/assistant/internal/llm"
)

const zaloMessageEndpoint = "https://openapi.zalo.me/v3.0/oa/message/cs"

// ZaloClient sends replies back to users of the studio's Zalo Official Account.
type ZaloClient struct {
	accessToken string
	client      *http.Client
}

func NewZaloClient(accessToken string) *ZaloClient {
	return &ZaloClient{
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (z *ZaloClient) SendText(ctx context.Context, userID, text string) error {
	if z.accessToken == "" {
		return fmt.Errorf("ZALO_OA_ACCESS_TOKEN is not set")
	}

	body := map[string]any{
		"recipient": map[string]string{"user_id": userID},
		"message":   map[string]string{"text": text},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal zalo message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, zaloMessageEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build zalo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", z.accessToken)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zalo request failed: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode zalo response: %w", err)
	}
	if out.Error != 0 {
		return fmt.Errorf("zalo API error %d: %s", out.Error, out.Message)
	}
	return nil
}

type zaloWebhookEvent struct {
	EventName string `json:"event_name"`
	Sender    struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

// ZaloWebhookHandler routes inbound Zalo OA messages through the chat
// pipeline. History retrieval is keyed by a per-user synthetic device id, so
// followups keep their context even though Zalo sends one message at a time.
func (h *APIHandler) ZaloWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var event zaloWebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("malformed zalo webhook payload", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	if event.EventName == "user_send_text" && event.Sender.ID != "" {
		userID := event.Sender.ID
		result := h.chatService.Process(r.Context(), core.ChatInput{
			Messages:  []llm.Turn{{Role: llm.RoleUser, Content: event.Message.Text}},
			DeviceID:  "zalo_" + userID,
			SessionID: "zalo_session_" + userID,
			IPAddress: "zalo_internal",
		})

		reply := result.Content
		if reply == "" {
			reply = "Xin lỗi, tôi đang gặp gián đoạn kết nối. Vui lòng thử lại sau."
		}
		if err := h.zalo.SendText(r.Context(), userID, reply); err != nil {
			h.logger.Error("failed to send zalo reply", zap.String("userId", userID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
