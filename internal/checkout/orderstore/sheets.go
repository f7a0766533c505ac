package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/common/orderstoreprotocol"
	"go-checkout/pkg/logging"
	"go-checkout/pkg/timeutils"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrRejected = errors.New("order store rejected the request")
)

type Config struct {
	ScriptURL          string
	Timeout            time.Duration
	RetryAttemptDelays []time.Duration
}

// Sheets talks to the spreadsheet web-app that owns the order rows.
type Sheets struct {
	cfg    Config
	client *resty.Client
	logger *logging.ZapLogger
}

func NewSheets(cfg Config, logger *logging.ZapLogger) *Sheets {
	return &Sheets{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

func (s *Sheets) CreateOrder(ctx context.Context, order data.NewOrder) (string, error) {
	res, err := s.call(ctx, map[string]string{
		"action":        orderstoreprotocol.ActionCreateOrder,
		"name":          order.Name,
		"email":         order.Email,
		"phone":         order.Phone,
		"package":       order.Package,
		"paymentMethod": order.PaymentMethod,
		"amount":        order.Amount.String(),
	})
	if err != nil {
		return "", err
	}
	if res.Status != orderstoreprotocol.StatusSuccess {
		return "", fmt.Errorf("%w: %s", ErrRejected, res.Message)
	}
	if res.OrderID == "" {
		return "", fmt.Errorf("%w: no order id in response", ErrRejected)
	}
	s.logger.DebugCtx(ctx, "order registered in sheet", zap.String("orderId", res.OrderID))
	return res.OrderID, nil
}

func (s *Sheets) GetOrder(ctx context.Context, orderID string) (data.Order, error) {
	return timeutils.Retry(ctx, s.cfg.RetryAttemptDelays, func(ctx context.Context) (data.Order, error) {
		return s.getOrder(ctx, orderID)
	}, func(err error) bool {
		retry := !errors.Is(err, data.ErrOrderNotFound) && !errors.Is(err, data.ErrMalformedOrder)
		if retry {
			s.logger.WarnCtx(ctx, "order lookup failed, retrying", zap.String("orderId", orderID), zap.Error(err))
		}
		return retry
	})
}

func (s *Sheets) getOrder(ctx context.Context, orderID string) (data.Order, error) {
	res, err := s.call(ctx, map[string]string{
		"action":  orderstoreprotocol.ActionGetOrder,
		"orderId": orderID,
	})
	if err != nil {
		return data.Order{}, err
	}
	if res.Status != orderstoreprotocol.StatusSuccess || res.Order == nil {
		return data.Order{}, fmt.Errorf("%w: %s", data.ErrOrderNotFound, res.Message)
	}
	return convertOrder(orderID, res.Order)
}

// MarkPaid relies on the sheet script to ignore repeated updates; it cannot
// tell us whether the row was already Paid, so success counts as a transition.
func (s *Sheets) MarkPaid(ctx context.Context, confirmation data.PaymentConfirmation) (bool, error) {
	res, err := s.call(ctx, map[string]string{
		"action":        orderstoreprotocol.ActionUpdatePayment,
		"orderId":       confirmation.OrderID,
		"billCode":      confirmation.BillCode,
		"transactionId": confirmation.TransactionID,
	})
	if err != nil {
		return false, err
	}
	if res.Status != orderstoreprotocol.StatusSuccess {
		return false, fmt.Errorf("%w: %s", ErrRejected, res.Message)
	}
	return true, nil
}

func (s *Sheets) call(ctx context.Context, form map[string]string) (orderstoreprotocol.Response, error) {
	resp, err := s.client.
		R().
		SetContext(ctx).
		SetFormData(form).
		Post(s.cfg.ScriptURL)
	if err != nil {
		return orderstoreprotocol.Response{}, fmt.Errorf("order store %s request failed: %w", form["action"], err)
	}
	if resp.StatusCode() != http.StatusOK {
		return orderstoreprotocol.Response{}, fmt.Errorf(
			"order store %s returned unexpected status code %v",
			form["action"],
			resp.StatusCode(),
		)
	}
	res := orderstoreprotocol.Response{}
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return orderstoreprotocol.Response{}, fmt.Errorf(
			"%w: error unmarshalling order store %s response: %w",
			data.ErrMalformedOrder,
			form["action"],
			err,
		)
	}
	return res, nil
}

func convertOrder(orderID string, o *orderstoreprotocol.Order) (data.Order, error) {
	amount, err := parseAmount(o.Amount)
	if err != nil {
		return data.Order{}, fmt.Errorf("%w: %w", data.ErrMalformedOrder, err)
	}
	if o.OrderID != "" {
		orderID = string(o.OrderID)
	}
	return data.Order{
		OrderID: orderID,
		Status:  data.ParseStatus(string(o.Status)),
		Name:    string(o.Name),
		Email:   string(o.Email),
		Phone:   string(o.Phone),
		Package: string(o.Package),
		Amount:  amount,
	}, nil
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch amount := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(amount), nil
	case string:
		if amount == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("unexpected amount type %T", v)
}
