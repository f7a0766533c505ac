package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/pkg/logging"

	"go.uber.org/zap"
)

type ConversionRelay struct {
	content     analytics.ContentConfig
	conversions ConversionSender
	logger      *logging.ZapLogger
	now         func() time.Time
}

func NewConversionRelay(content analytics.ContentConfig, conversions ConversionSender, logger *logging.ZapLogger) *ConversionRelay {
	return &ConversionRelay{
		content:     content,
		conversions: conversions,
		logger:      logger,
		now:         time.Now,
	}
}

// Relay forwards a browser-reported event synchronously.
func (c *ConversionRelay) Relay(ctx context.Context, custom analytics.Custom) error {
	custom.EventName = strings.TrimSpace(custom.EventName)
	custom.EventID = strings.TrimSpace(custom.EventID)
	if custom.EventName == "" || custom.EventID == "" {
		return &ValidationError{Message: "Missing required fields: eventName, eventId"}
	}
	err := c.conversions.Send(ctx, analytics.CustomEvent(c.content, custom, c.now()))
	if err != nil {
		var rejected *analytics.RejectedError
		switch {
		case errors.Is(err, analytics.ErrDisabled):
			return ErrConversionsUnavailable
		case errors.As(err, &rejected):
			return &ConversionRejectedError{Details: rejected.Body}
		default:
			return fmt.Errorf("failed to send conversion event: %w", err)
		}
	}
	c.logger.DebugCtx(ctx, "conversion event relayed", zap.String("eventName", custom.EventName))
	return nil
}
