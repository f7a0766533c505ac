package handlers

import (
	"context"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/service"
)

type MockBillingService struct {
	CreateBillFunc func(ctx context.Context, req service.BillRequest) (service.Bill, error)
	requests       []service.BillRequest
}

func (m *MockBillingService) CreateBill(ctx context.Context, req service.BillRequest) (service.Bill, error) {
	m.requests = append(m.requests, req)
	return m.CreateBillFunc(ctx, req)
}

type MockReconciliationService struct {
	ReconcileFunc func(ctx context.Context, payload service.WebhookPayload) (service.Outcome, error)
	payloads      []service.WebhookPayload
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, payload service.WebhookPayload) (service.Outcome, error) {
	m.payloads = append(m.payloads, payload)
	if m.ReconcileFunc == nil {
		return service.OutcomePaid, nil
	}
	return m.ReconcileFunc(ctx, payload)
}

type MockConversionRelayService struct {
	RelayFunc func(ctx context.Context, custom analytics.Custom) error
	relayed   []analytics.Custom
}

func (m *MockConversionRelayService) Relay(ctx context.Context, custom analytics.Custom) error {
	m.relayed = append(m.relayed, custom)
	if m.RelayFunc == nil {
		return nil
	}
	return m.RelayFunc(ctx, custom)
}

type MockOrderLookupService struct {
	GetOrderFunc func(ctx context.Context, orderID string) (data.Order, error)
}

func (m *MockOrderLookupService) GetOrder(ctx context.Context, orderID string) (data.Order, error) {
	return m.GetOrderFunc(ctx, orderID)
}
