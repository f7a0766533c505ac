package service

import (
	"context"
	"sync"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/paymentgateway"
	"go-checkout/internal/common/conversionprotocol"
)

type fakeOrderStore struct {
	mux    sync.Mutex
	orders map[string]data.Order

	CreateOrderFunc func(ctx context.Context, order data.NewOrder) (string, error)
	GetOrderFunc    func(ctx context.Context, orderID string) (data.Order, error)
	MarkPaidFunc    func(ctx context.Context, confirmation data.PaymentConfirmation) (bool, error)

	createCalls   int
	getCalls      int
	markPaidCalls int
	transitions   int
	confirmations []data.PaymentConfirmation
}

func newFakeOrderStore(orders ...data.Order) *fakeOrderStore {
	s := &fakeOrderStore{orders: make(map[string]data.Order)}
	for _, o := range orders {
		s.orders[o.OrderID] = o
	}
	return s
}

func (s *fakeOrderStore) CreateOrder(ctx context.Context, order data.NewOrder) (string, error) {
	s.mux.Lock()
	s.createCalls++
	s.mux.Unlock()
	if s.CreateOrderFunc != nil {
		return s.CreateOrderFunc(ctx, order)
	}
	return "PS-NEW", nil
}

func (s *fakeOrderStore) GetOrder(ctx context.Context, orderID string) (data.Order, error) {
	s.mux.Lock()
	s.getCalls++
	s.mux.Unlock()
	if s.GetOrderFunc != nil {
		return s.GetOrderFunc(ctx, orderID)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return data.Order{}, data.ErrOrderNotFound
	}
	return order, nil
}

func (s *fakeOrderStore) MarkPaid(ctx context.Context, confirmation data.PaymentConfirmation) (bool, error) {
	s.mux.Lock()
	s.markPaidCalls++
	s.confirmations = append(s.confirmations, confirmation)
	s.mux.Unlock()
	if s.MarkPaidFunc != nil {
		return s.MarkPaidFunc(ctx, confirmation)
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	order, ok := s.orders[confirmation.OrderID]
	if !ok {
		return false, data.ErrOrderNotFound
	}
	if order.Status.IsPaid() {
		return false, nil
	}
	order.Status = data.PaidStatus
	s.orders[confirmation.OrderID] = order
	s.transitions++
	return true, nil
}

func (s *fakeOrderStore) status(orderID string) data.Status {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.orders[orderID].Status
}

type fakeGateway struct {
	CreateBillFunc func(ctx context.Context, params paymentgateway.BillParams) (string, error)
	calls          []paymentgateway.BillParams
}

func (g *fakeGateway) CreateBill(ctx context.Context, params paymentgateway.BillParams) (string, error) {
	g.calls = append(g.calls, params)
	if g.CreateBillFunc != nil {
		return g.CreateBillFunc(ctx, params)
	}
	return "bc123", nil
}

func (g *fakeGateway) BillURL(billCode string) string {
	return "https://gateway.example/" + billCode
}

type fakeConversions struct {
	mux      sync.Mutex
	SendFunc func(ctx context.Context, events ...conversionprotocol.Event) error
	events   []conversionprotocol.Event
}

func (c *fakeConversions) Send(ctx context.Context, events ...conversionprotocol.Event) error {
	c.mux.Lock()
	c.events = append(c.events, events...)
	c.mux.Unlock()
	if c.SendFunc != nil {
		return c.SendFunc(ctx, events...)
	}
	return nil
}

func (c *fakeConversions) sent() []conversionprotocol.Event {
	c.mux.Lock()
	defer c.mux.Unlock()
	return append([]conversionprotocol.Event(nil), c.events...)
}

type fakeNotifier struct {
	mux            sync.Mutex
	NotifyPaidFunc func(ctx context.Context, order data.Order) error
	notified       []data.Order
}

func (n *fakeNotifier) NotifyPaid(ctx context.Context, order data.Order) error {
	n.mux.Lock()
	n.notified = append(n.notified, order)
	n.mux.Unlock()
	if n.NotifyPaidFunc != nil {
		return n.NotifyPaidFunc(ctx, order)
	}
	return nil
}

func (n *fakeNotifier) count() int {
	n.mux.Lock()
	defer n.mux.Unlock()
	return len(n.notified)
}

// syncTasks runs submitted work inline and keeps the results.
type syncTasks struct {
	SubmitErr error
	names     []string
	errs      []error
}

func (s *syncTasks) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if s.SubmitErr != nil {
		return s.SubmitErr
	}
	s.names = append(s.names, name)
	s.errs = append(s.errs, fn(ctx))
	return nil
}
