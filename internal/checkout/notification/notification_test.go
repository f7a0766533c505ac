package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/common/notificationprotocol"
	"go-checkout/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessage = MessageConfig{
	Username:    "PROSTREAM Bot",
	AvatarURL:   "https://cdn.example/icon.png",
	Title:       "✅ PEMBAYARAN BERJAYA",
	Description: "Pelanggan telah berjaya membuat pembayaran!",
	FooterText:  "PROSTREAM",
	CurrencyTag: "RM",
}

func fieldValue(t *testing.T, msg notificationprotocol.Message, name string) string {
	t.Helper()
	for _, f := range msg.Embeds[0].Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", name)
	return ""
}

func TestPaymentSuccessMessage(t *testing.T) {
	now := time.Unix(1700000000, 0)
	msg := PaymentSuccessMessage(testMessage, data.Order{
		OrderID: "PS-1",
		Name:    "Ali",
		Email:   "ali@example.com",
		Phone:   "0123",
		Package: "Gold",
		Amount:  decimal.RequireFromString("49.9"),
	}, now)

	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, "PROSTREAM Bot", msg.Username)
	assert.Equal(t, "RM 49.90", fieldValue(t, msg, "💰 Jumlah"))
	assert.Equal(t, "Ali", fieldValue(t, msg, "👤 Nama"))
	assert.Equal(t, "<t:1700000000:F>", fieldValue(t, msg, "🕐 Tarikh & Masa"))
	assert.Equal(t, "2023-11-14T22:13:20Z", msg.Embeds[0].Timestamp)
	require.NotNil(t, msg.Embeds[0].Footer)
}

func TestPaymentSuccessMessagePartialOrder(t *testing.T) {
	msg := PaymentSuccessMessage(MessageConfig{}, data.Order{OrderID: "PS-1"}, time.Unix(0, 0))

	assert.Equal(t, "N/A", fieldValue(t, msg, "👤 Nama"))
	assert.Equal(t, "N/A", fieldValue(t, msg, "📧 Email"))
	assert.Equal(t, "N/A", fieldValue(t, msg, "📦 Produk"))
	assert.Equal(t, "N/A", fieldValue(t, msg, "💰 Jumlah"))
	assert.Nil(t, msg.Embeds[0].Footer)
}

func TestDiscordNotifyPaid(t *testing.T) {
	var received notificationprotocol.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	discord := NewDiscord(Config{WebhookURL: srv.URL, Message: testMessage, Timeout: time.Second}, logging.NewNop())

	require.NoError(t, discord.NotifyPaid(context.Background(), data.Order{OrderID: "PS-1", Name: "Ali"}))
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, testMessage.Title, received.Embeds[0].Title)
}

func TestDiscordNotifyPaidFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	discord := NewDiscord(Config{WebhookURL: srv.URL, Timeout: time.Second}, logging.NewNop())
	assert.Error(t, discord.NotifyPaid(context.Background(), data.Order{}))
}

func TestDiscordDisabled(t *testing.T) {
	discord := NewDiscord(Config{}, logging.NewNop())
	assert.ErrorIs(t, discord.NotifyPaid(context.Background(), data.Order{}), ErrDisabled)
}
