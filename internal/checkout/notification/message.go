package notification

import (
	"fmt"
	"strings"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/common/notificationprotocol"
)

const (
	placeholder  = "N/A"
	successColor = 0x43b581
)

type MessageConfig struct {
	Username    string
	AvatarURL   string
	Title       string
	Description string
	FooterText  string
	CurrencyTag string
}

// PaymentSuccessMessage never fails on a partially filled order; blanks become N/A.
func PaymentSuccessMessage(cfg MessageConfig, order data.Order, now time.Time) notificationprotocol.Message {
	amount := placeholder
	if !order.Amount.IsZero() {
		amount = strings.TrimSpace(cfg.CurrencyTag + " " + order.Amount.StringFixed(2))
	}
	embed := notificationprotocol.Embed{
		Title:       cfg.Title,
		Description: cfg.Description,
		Color:       successColor,
		Fields: []notificationprotocol.Field{
			{Name: "📋 Status Pembayaran", Value: "Berjaya", Inline: true},
			{Name: "🧾 Order ID", Value: orPlaceholder(order.OrderID), Inline: true},
			{Name: "👤 Nama", Value: orPlaceholder(order.Name), Inline: true},
			{Name: "📱 No Telefon", Value: orPlaceholder(order.Phone), Inline: true},
			{Name: "📧 Email", Value: orPlaceholder(order.Email), Inline: false},
			{Name: "📦 Produk", Value: orPlaceholder(order.Package), Inline: true},
			{Name: "💰 Jumlah", Value: amount, Inline: true},
			{Name: "🕐 Tarikh & Masa", Value: fmt.Sprintf("<t:%d:F>", now.Unix()), Inline: false},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if cfg.FooterText != "" {
		embed.Footer = &notificationprotocol.Footer{Text: cfg.FooterText, IconURL: cfg.AvatarURL}
	}
	return notificationprotocol.Message{
		Username:  cfg.Username,
		AvatarURL: cfg.AvatarURL,
		Embeds:    []notificationprotocol.Embed{embed},
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
