package service

import (
	"context"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/paymentgateway"
	"go-checkout/internal/common/conversionprotocol"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order data.NewOrder) (orderID string, err error)
	GetOrder(ctx context.Context, orderID string) (data.Order, error)
	// MarkPaid must be safe to call more than once for the same order.
	MarkPaid(ctx context.Context, confirmation data.PaymentConfirmation) (transitioned bool, err error)
}

// BillRecorder is implemented by stores that keep the gateway bill code, which
// lets missed callbacks be recovered later.
type BillRecorder interface {
	AttachBill(ctx context.Context, orderID string, billCode string) error
}

type PaymentGateway interface {
	CreateBill(ctx context.Context, params paymentgateway.BillParams) (billCode string, err error)
	BillURL(billCode string) string
}

type ConversionSender interface {
	Send(ctx context.Context, events ...conversionprotocol.Event) error
}

type Notifier interface {
	NotifyPaid(ctx context.Context, order data.Order) error
}

type TaskSubmitter interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}
