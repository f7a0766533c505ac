package paymentsweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/service"
	"go-checkout/internal/common/gatewayprotocol"
	"go-checkout/pkg/logging"
	"go-checkout/pkg/threadsafe"

	"go.uber.org/zap"
)

const recoveredMsg = "recovered from bill transactions"

type PendingBills interface {
	ListPendingBills(ctx context.Context, limit int, createdAfter time.Time, createdBefore time.Time) ([]data.PendingBill, error)
}

type Gateway interface {
	GetBillTransactions(ctx context.Context, billCode string) ([]gatewayprotocol.Transaction, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, payload service.WebhookPayload) (service.Outcome, error)
}

type Config struct {
	TickPeriod time.Duration
	// MinAge leaves fresh bills to the callback.
	MinAge time.Duration
	// MaxAge stops polling bills the gateway has already expired.
	MaxAge            time.Duration
	WorkersCount      int
	TasksBufferLength int
}

// PaymentSweeper finds pending orders whose payment callback never arrived
// and replays the confirmed payment through the reconciler.
type PaymentSweeper struct {
	pendingBills PendingBills
	gateway      Gateway
	reconciler   Reconciler
	processing   *threadsafe.HashSet[string]
	config       Config
	logger       *logging.ZapLogger
	now          func() time.Time
}

func NewPaymentSweeper(
	config Config,
	pendingBills PendingBills,
	gateway Gateway,
	reconciler Reconciler,
	logger *logging.ZapLogger,
) *PaymentSweeper {
	if config.WorkersCount <= 0 {
		config.WorkersCount = 1
	}
	if config.TasksBufferLength <= 0 {
		config.TasksBufferLength = 1
	}
	return &PaymentSweeper{
		pendingBills: pendingBills,
		gateway:      gateway,
		reconciler:   reconciler,
		processing:   threadsafe.NewHashSet[string](),
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// Run blocks until ctx is done and in-flight bills are finished.
func (ps *PaymentSweeper) Run(ctx context.Context) {
	ctx = logging.WithContextFields(ctx, zap.String("component", "payment-sweeper"))
	billsChan := make(chan data.PendingBill, ps.config.TasksBufferLength)

	wg := &sync.WaitGroup{}

	for range ps.config.WorkersCount {
		wg.Add(1)
		go func(billsChan <-chan data.PendingBill) {
			defer wg.Done()
			ps.worker(ctx, billsChan)
		}(billsChan)
	}

	wg.Add(1)
	go func(billsChan chan<- data.PendingBill) {
		defer wg.Done()
		ps.scheduler(ctx, billsChan)
	}(billsChan)

	wg.Wait()
}

func (ps *PaymentSweeper) scheduler(ctx context.Context, billsChan chan<- data.PendingBill) {
	defer close(billsChan)

	ticker := time.NewTicker(ps.config.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ps.tick(ctx, billsChan); err != nil {
				ps.logger.ErrorCtx(ctx, "error while scheduling pending bills", zap.Error(err))
			}
		}
	}
}

func (ps *PaymentSweeper) tick(ctx context.Context, billsChan chan<- data.PendingBill) error {
	maxTasksToSchedule := ps.config.TasksBufferLength - len(billsChan)
	if maxTasksToSchedule <= 0 {
		return nil
	}
	now := ps.now()
	bills, err := ps.pendingBills.ListPendingBills(
		ctx,
		maxTasksToSchedule,
		now.Add(-ps.config.MaxAge),
		now.Add(-ps.config.MinAge),
	)
	if err != nil {
		return fmt.Errorf("failed to list pending bills: %w", err)
	}
	for _, bill := range bills {
		if !ps.processing.Add(bill.OrderID) {
			continue
		}
		ps.logger.DebugCtx(ctx, "scheduling pending bill", zap.String("orderId", bill.OrderID))
		billsChan <- bill
	}
	return nil
}

func (ps *PaymentSweeper) worker(ctx context.Context, billsChan <-chan data.PendingBill) {
	for bill := range billsChan {
		err := ps.handleBill(ctx, bill)
		ps.processing.Remove(bill.OrderID)
		if err != nil {
			ps.logger.WarnCtx(ctx, "failed to check pending bill", zap.String("orderId", bill.OrderID), zap.Error(err))
		}
	}
}

func (ps *PaymentSweeper) handleBill(ctx context.Context, bill data.PendingBill) error {
	transactions, err := ps.gateway.GetBillTransactions(ctx, bill.BillCode)
	if err != nil {
		return fmt.Errorf("failed to get bill transactions: %w", err)
	}
	for _, transaction := range transactions {
		if transaction.PaymentStatus != gatewayprotocol.StatusSuccess {
			continue
		}
		outcome, err := ps.reconciler.Reconcile(context.WithoutCancel(ctx), service.WebhookPayload{
			BillCode:      bill.BillCode,
			StatusID:      gatewayprotocol.StatusSuccess,
			OrderID:       bill.OrderID,
			TransactionID: transaction.InvoiceNo,
			Amount:        transaction.PaymentAmount,
			Msg:           recoveredMsg,
		})
		if err != nil {
			return fmt.Errorf("failed to reconcile recovered payment: %w", err)
		}
		ps.logger.InfoCtx(
			ctx,
			"recovered payment without callback",
			zap.String("orderId", bill.OrderID),
			zap.String("outcome", string(outcome)),
		)
		return nil
	}
	return nil
}
