package service

import (
	"context"
	"strings"
	"time"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/data"
	"go-checkout/internal/common/gatewayprotocol"
	"go-checkout/pkg/logging"
	"go-checkout/pkg/threadsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Outcome string

const (
	OutcomeNotSuccessful     = Outcome("not_successful")
	OutcomeInProgress        = Outcome("in_progress")
	OutcomeLookupFailed      = Outcome("lookup_failed")
	OutcomeAlreadyPaid       = Outcome("already_paid")
	OutcomePaid              = Outcome("paid")
	OutcomeStoreUpdateFailed = Outcome("store_update_failed")
)

type WebhookPayload struct {
	BillCode      string
	StatusID      string
	OrderID       string
	TransactionID string
	Amount        string
	Msg           string
}

type Reconciler struct {
	orders      OrderStore
	conversions ConversionSender
	notifier    Notifier
	content     analytics.ContentConfig
	inFlight    *threadsafe.KeyedMutex[string]
	logger      *logging.ZapLogger
	now         func() time.Time
}

func NewReconciler(
	orders OrderStore,
	conversions ConversionSender,
	notifier Notifier,
	content analytics.ContentConfig,
	logger *logging.ZapLogger,
) *Reconciler {
	return &Reconciler{
		orders:      orders,
		conversions: conversions,
		notifier:    notifier,
		content:     content,
		inFlight:    threadsafe.NewKeyedMutex[string](),
		logger:      logger,
		now:         time.Now,
	}
}

// Reconcile applies one gateway callback. Only a payload without an order id
// is an error; every other problem is logged and reported through Outcome so
// the callback can still be acknowledged.
func (r *Reconciler) Reconcile(ctx context.Context, payload WebhookPayload) (Outcome, error) {
	orderID := strings.TrimSpace(payload.OrderID)
	if orderID == "" {
		r.logger.WarnCtx(ctx, "callback without order id", zap.String("billCode", payload.BillCode))
		return "", ErrWebhookMalformed
	}
	ctx = logging.WithContextFields(
		ctx,
		zap.String("orderId", orderID),
		zap.String("billCode", payload.BillCode),
		zap.String("statusId", payload.StatusID),
	)

	if payload.StatusID != gatewayprotocol.StatusSuccess {
		r.logger.InfoCtx(ctx, "payment not successful, order left as is", zap.String("msg", payload.Msg))
		return OutcomeNotSuccessful, nil
	}

	// A duplicate waits for the delivery ahead of it and then reads the
	// order itself, so a failed lookup by the first one is retried here.
	unlock, err := r.inFlight.Lock(ctx, orderID)
	if err != nil {
		r.logger.WarnCtx(ctx, "gave up waiting for a concurrent callback for this order", zap.Error(err))
		return OutcomeInProgress, nil
	}
	defer unlock()

	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		r.logger.ErrorCtx(ctx, "side effect failure: order lookup", zap.Error(err))
		return OutcomeLookupFailed, nil
	}
	if order.Status.IsPaid() {
		r.logger.InfoCtx(ctx, "order already paid, no action taken")
		return OutcomeAlreadyPaid, nil
	}

	outcome := OutcomePaid
	transitioned, err := r.orders.MarkPaid(ctx, data.PaymentConfirmation{
		OrderID:       orderID,
		BillCode:      payload.BillCode,
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
	})
	switch {
	case err != nil:
		// The customer has paid; the operator still needs to hear about it.
		r.logger.ErrorCtx(ctx, "side effect failure: marking order paid", zap.Error(err))
		outcome = OutcomeStoreUpdateFailed
	case !transitioned:
		r.logger.InfoCtx(ctx, "order was marked paid by a concurrent callback")
		return OutcomeAlreadyPaid, nil
	default:
		r.logger.InfoCtx(ctx, "order marked paid", zap.String("transactionId", payload.TransactionID))
	}

	order.OrderID = orderID
	order.Status = data.PaidStatus
	r.emitPaid(ctx, order)
	return outcome, nil
}

func (r *Reconciler) emitPaid(ctx context.Context, order data.Order) {
	var g errgroup.Group
	g.Go(func() error {
		err := ignoreDisabled(r.conversions.Send(ctx, analytics.PurchaseEvent(r.content, order, r.now())))
		if err != nil {
			r.logger.ErrorCtx(ctx, "side effect failure: purchase event", zap.Error(err))
		}
		return err
	})
	g.Go(func() error {
		err := ignoreDisabled(r.notifier.NotifyPaid(ctx, order))
		if err != nil {
			r.logger.ErrorCtx(ctx, "side effect failure: operator notification", zap.Error(err))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.WarnCtx(ctx, "paid order side effects finished with errors")
	}
}
