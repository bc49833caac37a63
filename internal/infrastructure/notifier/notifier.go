package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

// WebhookNotifier posts every escrow event to a fixed callback URL.
type WebhookNotifier struct {
	callbackURL string
	client      *http.Client
}

func NewWebhookNotifier(callbackURL string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Publish(ctx context.Context, event domain.EscrowEvent) error {
	return n.SendCallback(ctx, CallbackPayload{
		EventID:      event.ID,
		EscrowID:     event.EscrowID,
		OrderID:      event.OrderID,
		Status:       string(event.Type),
		Maker:        event.Maker,
		Taker:        event.Taker,
		TokenToSell:  event.TokenToSell,
		TokenToBuy:   event.TokenToBuy,
		AmountToSell: event.AmountToSell,
		AmountToBuy:  event.AmountToBuy,
		OccurredAt:   event.OccurredAt,
	})
}

func (n *WebhookNotifier) SendCallback(ctx context.Context, payload CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Escrow-Event-Id", payload.EventID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
