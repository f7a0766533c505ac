package service

import (
	"context"
	"errors"
	"testing"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/common/conversionprotocol"
	"go-checkout/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionRelay(t *testing.T) {
	value := decimal.RequireFromString("10.50")
	tests := []struct {
		name    string
		custom  analytics.Custom
		sendErr error
		check   func(t *testing.T, err error, sent []conversionprotocol.Event)
	}{
		{
			name:   "relayed",
			custom: analytics.Custom{EventName: "ViewContent", EventID: "qr_1", Value: &value},
			check: func(t *testing.T, err error, sent []conversionprotocol.Event) {
				require.NoError(t, err)
				require.Len(t, sent, 1)
				assert.Equal(t, "ViewContent", sent[0].EventName)
				assert.Equal(t, "qr_1", sent[0].EventID)
				assert.Equal(t, "1050", sent[0].CustomData.Value)
			},
		},
		{
			name:   "missing event id",
			custom: analytics.Custom{EventName: "ViewContent"},
			check: func(t *testing.T, err error, sent []conversionprotocol.Event) {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Empty(t, sent)
			},
		},
		{
			name:    "rejected",
			custom:  analytics.Custom{EventName: "Lead", EventID: "qr_2"},
			sendErr: &analytics.RejectedError{StatusCode: 400, Body: `{"error":{}}`},
			check: func(t *testing.T, err error, _ []conversionprotocol.Event) {
				var rejected *ConversionRejectedError
				require.True(t, errors.As(err, &rejected))
				assert.Equal(t, `{"error":{}}`, rejected.Details)
			},
		},
		{
			name:    "disabled",
			custom:  analytics.Custom{EventName: "Lead", EventID: "qr_3"},
			sendErr: analytics.ErrDisabled,
			check: func(t *testing.T, err error, _ []conversionprotocol.Event) {
				assert.ErrorIs(t, err, ErrConversionsUnavailable)
			},
		},
		{
			name:    "transport",
			custom:  analytics.Custom{EventName: "Lead", EventID: "qr_4"},
			sendErr: errors.New("timeout"),
			check: func(t *testing.T, err error, _ []conversionprotocol.Event) {
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrValidation)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conversions := &fakeConversions{}
			if test.sendErr != nil {
				conversions.SendFunc = func(context.Context, ...conversionprotocol.Event) error {
					return test.sendErr
				}
			}
			relay := NewConversionRelay(testBillingConfig.Content, conversions, logging.NewNop())

			err := relay.Relay(context.Background(), test.custom)

			test.check(t, err, conversions.sent())
		})
	}
}
