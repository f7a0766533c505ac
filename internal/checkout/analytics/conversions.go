package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-checkout/internal/common/conversionprotocol"
	"go-checkout/pkg/logging"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	ErrDisabled = errors.New("conversions api is not configured")
)

// RejectedError is a non-2xx answer from the conversions endpoint.
type RejectedError struct {
	StatusCode int
	Body       string
	Message    string
	TraceID    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("conversions api rejected events with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("conversions api rejected events with status %d: %s (fbtrace_id %s)", e.StatusCode, e.Message, e.TraceID)
}

func newRejectedError(statusCode int, body []byte) *RejectedError {
	rejected := &RejectedError{StatusCode: statusCode, Body: string(body)}
	res := conversionprotocol.Response{}
	if err := json.Unmarshal(body, &res); err != nil || res.Error == nil {
		return rejected
	}
	rejected.Message = res.Error.Message
	rejected.TraceID = res.Error.FBTraceID
	return rejected
}

type Config struct {
	BaseURL     string
	APIVersion  string
	PixelID     string
	AccessToken string
	Timeout     time.Duration
}

type ConversionsAPI struct {
	cfg    Config
	client *resty.Client
	logger *logging.ZapLogger
}

func NewConversionsAPI(cfg Config, logger *logging.ZapLogger) *ConversionsAPI {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ConversionsAPI{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

func (c *ConversionsAPI) Enabled() bool {
	return c.cfg.PixelID != "" && c.cfg.AccessToken != ""
}

func (c *ConversionsAPI) Send(ctx context.Context, events ...conversionprotocol.Event) error {
	if !c.Enabled() {
		c.logger.DebugCtx(ctx, "conversions api disabled, event dropped", zap.Int("events", len(events)))
		return ErrDisabled
	}
	res := conversionprotocol.Response{}
	resp, err := c.client.
		R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"version": c.cfg.APIVersion,
			"pixel":   c.cfg.PixelID,
		}).
		SetQueryParam("access_token", c.cfg.AccessToken).
		SetBody(conversionprotocol.Batch{Data: events}).
		SetResult(&res).
		Post(c.cfg.BaseURL + "/{version}/{pixel}/events")
	if err != nil {
		// the request URL carries the access token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("conversions api request failed: %w", err)
	}
	if resp.IsError() {
		return newRejectedError(resp.StatusCode(), resp.Body())
	}
	for _, event := range events {
		c.logger.InfoCtx(
			ctx,
			"conversion event sent",
			zap.String("eventName", event.EventName),
			zap.String("eventId", event.EventID),
			zap.Int("eventsReceived", res.EventsReceived),
			zap.String("fbtraceId", res.FBTraceID),
		)
	}
	return nil
}
