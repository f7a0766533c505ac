package paymentsweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/service"
	"go-checkout/internal/common/gatewayprotocol"
	"go-checkout/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePendingBills struct {
	mux   sync.Mutex
	bills []data.PendingBill
	calls [][2]time.Time
}

func (f *fakePendingBills) ListPendingBills(_ context.Context, limit int, createdAfter time.Time, createdBefore time.Time) ([]data.PendingBill, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.calls = append(f.calls, [2]time.Time{createdAfter, createdBefore})
	if len(f.bills) > limit {
		return f.bills[:limit], nil
	}
	return f.bills, nil
}

type fakeGateway struct {
	transactions map[string][]gatewayprotocol.Transaction
	err          error
}

func (f *fakeGateway) GetBillTransactions(_ context.Context, billCode string) ([]gatewayprotocol.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.transactions[billCode], nil
}

type fakeReconciler struct {
	mux      sync.Mutex
	payloads []service.WebhookPayload
}

func (f *fakeReconciler) Reconcile(_ context.Context, payload service.WebhookPayload) (service.Outcome, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.payloads = append(f.payloads, payload)
	return service.OutcomePaid, nil
}

func (f *fakeReconciler) received() []service.WebhookPayload {
	f.mux.Lock()
	defer f.mux.Unlock()
	return append([]service.WebhookPayload(nil), f.payloads...)
}

func TestHandleBillReplaysSuccessfulTransaction(t *testing.T) {
	gateway := &fakeGateway{transactions: map[string][]gatewayprotocol.Transaction{
		"bc1": {
			{PaymentStatus: "3", InvoiceNo: "TP0"},
			{PaymentStatus: "1", InvoiceNo: "TP1", PaymentAmount: "49.90"},
		},
	}}
	reconciler := &fakeReconciler{}
	sweeper := NewPaymentSweeper(Config{}, &fakePendingBills{}, gateway, reconciler, logging.NewNop())

	err := sweeper.handleBill(context.Background(), data.PendingBill{OrderID: "ORD-1", BillCode: "bc1"})

	require.NoError(t, err)
	assert.Equal(t, []service.WebhookPayload{{
		BillCode:      "bc1",
		StatusID:      "1",
		OrderID:       "ORD-1",
		TransactionID: "TP1",
		Amount:        "49.90",
		Msg:           recoveredMsg,
	}}, reconciler.received())
}

func TestHandleBillWithoutPayment(t *testing.T) {
	reconciler := &fakeReconciler{}
	sweeper := NewPaymentSweeper(Config{}, &fakePendingBills{}, &fakeGateway{}, reconciler, logging.NewNop())

	err := sweeper.handleBill(context.Background(), data.PendingBill{OrderID: "ORD-1", BillCode: "bc1"})

	require.NoError(t, err)
	assert.Empty(t, reconciler.received())
}

func TestHandleBillGatewayError(t *testing.T) {
	reconciler := &fakeReconciler{}
	gateway := &fakeGateway{err: errors.New("timeout")}
	sweeper := NewPaymentSweeper(Config{}, &fakePendingBills{}, gateway, reconciler, logging.NewNop())

	err := sweeper.handleBill(context.Background(), data.PendingBill{OrderID: "ORD-1", BillCode: "bc1"})

	assert.Error(t, err)
	assert.Empty(t, reconciler.received())
}

func TestTickSkipsBillsInProgress(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pending := &fakePendingBills{bills: []data.PendingBill{
		{OrderID: "ORD-1", BillCode: "bc1"},
		{OrderID: "ORD-2", BillCode: "bc2"},
	}}
	sweeper := NewPaymentSweeper(Config{
		MinAge:            10 * time.Minute,
		MaxAge:            24 * time.Hour,
		TasksBufferLength: 4,
	}, pending, &fakeGateway{}, &fakeReconciler{}, logging.NewNop())
	sweeper.now = func() time.Time { return now }
	sweeper.processing.Add("ORD-1")
	billsChan := make(chan data.PendingBill, 4)

	require.NoError(t, sweeper.tick(context.Background(), billsChan))

	require.Len(t, billsChan, 1)
	assert.Equal(t, "ORD-2", (<-billsChan).OrderID)
	require.Len(t, pending.calls, 1)
	assert.Equal(t, now.Add(-24*time.Hour), pending.calls[0][0])
	assert.Equal(t, now.Add(-10*time.Minute), pending.calls[0][1])
}

func TestRunStopsWithContext(t *testing.T) {
	pending := &fakePendingBills{bills: []data.PendingBill{{OrderID: "ORD-1", BillCode: "bc1"}}}
	gateway := &fakeGateway{transactions: map[string][]gatewayprotocol.Transaction{
		"bc1": {{PaymentStatus: "1", InvoiceNo: "TP1"}},
	}}
	reconciler := &fakeReconciler{}
	sweeper := NewPaymentSweeper(Config{
		TickPeriod:        5 * time.Millisecond,
		MaxAge:            time.Hour,
		WorkersCount:      2,
		TasksBufferLength: 4,
	}, pending, gateway, reconciler, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(reconciler.received()) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
