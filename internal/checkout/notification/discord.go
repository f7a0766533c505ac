package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/pkg/logging"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrDisabled = errors.New("notification webhook is not configured")
)

type Config struct {
	WebhookURL string
	Message    MessageConfig
	Timeout    time.Duration
}

type Discord struct {
	cfg    Config
	client *resty.Client
	logger *logging.ZapLogger
	now    func() time.Time
}

func NewDiscord(cfg Config, logger *logging.ZapLogger) *Discord {
	return &Discord{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

func (d *Discord) NotifyPaid(ctx context.Context, order data.Order) error {
	if d.cfg.WebhookURL == "" {
		d.logger.DebugCtx(ctx, "notification webhook disabled", zap.String("orderId", order.OrderID))
		return ErrDisabled
	}
	resp, err := d.client.
		R().
		SetContext(ctx).
		SetBody(PaymentSuccessMessage(d.cfg.Message, order, d.now())).
		Post(d.cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	d.logger.InfoCtx(ctx, "operator notified", zap.String("orderId", order.OrderID))
	return nil
}
