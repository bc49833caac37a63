package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPostsEvent(t *testing.T) {
	var (
		got     CallbackPayload
		eventID string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		eventID = r.Header.Get("X-Escrow-Event-Id")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	err := n.Publish(context.Background(), domain.EscrowEvent{
		ID:           "ev-1",
		EscrowID:     "escrow-1",
		Type:         domain.EscrowCompleted,
		AmountToSell: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", eventID)
	assert.Equal(t, "COMPLETED", got.Status)
	assert.Equal(t, int64(100), got.AmountToSell)
}

func TestWebhookReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, 0).SendCallback(context.Background(), CallbackPayload{EventID: "ev-1"})
	assert.ErrorContains(t, err, "502")
}
