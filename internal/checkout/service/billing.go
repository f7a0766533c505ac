package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/notification"
	"go-checkout/internal/checkout/paymentgateway"
	"go-checkout/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	missingFieldsMessage = "Missing required fields: name, email, phone, amount"
	checkoutTaskName     = "checkout-initiated-event"
)

type BillingConfig struct {
	BillName       string
	DefaultPackage string
	PaymentMethod  string
	Content        analytics.ContentConfig
}

type BillRequest struct {
	Name            string
	Email           string
	Phone           string
	Amount          decimal.Decimal
	BillDescription string
	OrderID         string
	Client          analytics.Client
}

type Bill struct {
	BillCode string
	BillURL  string
	OrderID  string
}

type Billing struct {
	cfg         BillingConfig
	orders      OrderStore
	gateway     PaymentGateway
	conversions ConversionSender
	tasks       TaskSubmitter
	logger      *logging.ZapLogger
	now         func() time.Time
}

func NewBilling(
	cfg BillingConfig,
	orders OrderStore,
	gateway PaymentGateway,
	conversions ConversionSender,
	tasks TaskSubmitter,
	logger *logging.ZapLogger,
) *Billing {
	return &Billing{
		cfg:         cfg,
		orders:      orders,
		gateway:     gateway,
		conversions: conversions,
		tasks:       tasks,
		logger:      logger,
		now:         time.Now,
	}
}

func (b *Billing) CreateBill(ctx context.Context, req BillRequest) (Bill, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Amount.IsZero() {
		return Bill{}, &ValidationError{Message: missingFieldsMessage}
	}
	minorUnits, err := ToMinorUnits(req.Amount)
	if err != nil {
		return Bill{}, err
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID, err = b.registerOrder(ctx, req)
		if err != nil {
			return Bill{}, err
		}
	}
	ctx = logging.WithContextFields(ctx, zap.String("orderId", orderID))

	description := req.BillDescription
	if description == "" {
		description = fmt.Sprintf("Pembelian %s Package - RM%s", b.cfg.BillName, req.Amount.String())
	}
	billCode, err := b.gateway.CreateBill(ctx, paymentgateway.BillParams{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		AmountMinorUnits:  minorUnits,
		Description:       description,
		ExternalReference: orderID,
	})
	if err != nil {
		return Bill{}, convertGatewayError(err)
	}

	bill := Bill{
		BillCode: billCode,
		BillURL:  b.gateway.BillURL(billCode),
		OrderID:  orderID,
	}
	b.logger.InfoCtx(ctx, "bill created", zap.String("billCode", billCode))
	if recorder, ok := b.orders.(BillRecorder); ok {
		if err := recorder.AttachBill(ctx, orderID, billCode); err != nil {
			b.logger.WarnCtx(ctx, "failed to record bill code", zap.Error(err))
		}
	}
	b.submitCheckoutEvent(ctx, req, orderID)
	return bill, nil
}

func (b *Billing) registerOrder(ctx context.Context, req BillRequest) (string, error) {
	pkg := req.BillDescription
	if pkg == "" {
		pkg = b.cfg.DefaultPackage
	}
	orderID, err := b.orders.CreateOrder(ctx, data.NewOrder{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Package:       pkg,
		PaymentMethod: b.cfg.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOrderRegistration, err)
	}
	if strings.TrimSpace(orderID) == "" {
		return "", fmt.Errorf("%w: order store returned an empty order id", ErrOrderRegistration)
	}
	b.logger.InfoCtx(ctx, "order registered", zap.String("orderId", orderID))
	return orderID, nil
}

func (b *Billing) submitCheckoutEvent(ctx context.Context, req BillRequest, orderID string) {
	first, last := analytics.SplitName(req.Name)
	event := analytics.CheckoutInitiatedEvent(b.cfg.Content, analytics.Checkout{
		OrderID: orderID,
		Customer: analytics.Customer{
			Email:     req.Email,
			Phone:     req.Phone,
			FirstName: first,
			LastName:  last,
		},
		Client: req.Client,
		Amount: req.Amount,
	}, b.now())
	err := b.tasks.Submit(ctx, checkoutTaskName, func(ctx context.Context) error {
		return ignoreDisabled(b.conversions.Send(ctx, event))
	})
	if err != nil {
		b.logger.WarnCtx(ctx, "checkout event not scheduled", zap.Error(err))
	}
}

func convertGatewayError(err error) error {
	if errors.Is(err, paymentgateway.ErrMaintenance) {
		return fmt.Errorf("%w: %w", ErrGatewayMaintenance, err)
	}
	var respErr *paymentgateway.ResponseError
	if errors.As(err, &respErr) {
		return &GatewayError{Raw: respErr.Raw, Rejected: respErr.Parsed, Err: err}
	}
	return &GatewayError{Err: err}
}

func ignoreDisabled(err error) error {
	if errors.Is(err, analytics.ErrDisabled) || errors.Is(err, notification.ErrDisabled) {
		return nil
	}
	return err
}
