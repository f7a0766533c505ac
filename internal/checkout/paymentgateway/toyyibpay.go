package paymentgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-checkout/internal/common/gatewayprotocol"
	"go-checkout/pkg/logging"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	createBillPath      = "/index.php/api/createBill"
	billTransactionPath = "/index.php/api/getBillTransactions"

	priceSettingFixed = "1"
	payorInfoRequired = "1"
	splitPaymentOff   = "0"
)

var (
	ErrMaintenance = errors.New("payment channel under maintenance")
)

// ResponseError is returned when the gateway answered without a bill code.
// Raw holds the response text for diagnostics.
type ResponseError struct {
	Raw string
	// Parsed is false when the body was not JSON at all.
	Parsed bool
}

func (e *ResponseError) Error() string {
	if e.Parsed {
		return "payment gateway rejected bill: " + e.Raw
	}
	return "invalid response from payment gateway: " + e.Raw
}

type Config struct {
	BaseURL          string
	SecretKey        string
	CategoryCode     string
	BillName         string
	ReturnURL        string
	CallbackURL      string
	ExpiryDays       int
	PaymentChannel   string
	ChargeToCustomer string
	ContentEmail     string
	Timeout          time.Duration
}

type BillParams struct {
	Name              string
	Email             string
	Phone             string
	AmountMinorUnits  int64
	Description       string
	ExternalReference string
}

type ToyyibPay struct {
	cfg    Config
	client *resty.Client
	logger *logging.ZapLogger
}

func NewToyyibPay(cfg Config, logger *logging.ZapLogger) *ToyyibPay {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ToyyibPay{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
		logger: logger,
	}
}

func (tp *ToyyibPay) BillURL(billCode string) string {
	return tp.cfg.BaseURL + "/" + billCode
}

func (tp *ToyyibPay) CreateBill(ctx context.Context, params BillParams) (string, error) {
	form := map[string]string{
		"userSecretKey":           tp.cfg.SecretKey,
		"categoryCode":            tp.cfg.CategoryCode,
		"billName":                tp.cfg.BillName,
		"billDescription":         params.Description,
		"billPriceSetting":        priceSettingFixed,
		"billPayorInfo":           payorInfoRequired,
		"billAmount":              strconv.FormatInt(params.AmountMinorUnits, 10),
		"billReturnUrl":           tp.cfg.ReturnURL,
		"billCallbackUrl":         tp.cfg.CallbackURL,
		"billExternalReferenceNo": params.ExternalReference,
		"billTo":                  params.Name,
		"billEmail":               params.Email,
		"billPhone":               params.Phone,
		"billSplitPayment":        splitPaymentOff,
		"billSplitPaymentArgs":    "",
		"billPaymentChannel":      tp.cfg.PaymentChannel,
		"billChargeToCustomer":    tp.cfg.ChargeToCustomer,
		"billExpiryDays":          strconv.Itoa(tp.cfg.ExpiryDays),
		"billContentEmail":        tp.cfg.ContentEmail,
	}
	tp.logger.DebugCtx(
		ctx,
		"creating bill",
		zap.String("orderId", params.ExternalReference),
		zap.Int64("billAmount", params.AmountMinorUnits),
	)

	resp, err := tp.client.
		R().
		SetContext(ctx).
		SetMultipartFormData(form).
		Post(tp.cfg.BaseURL + createBillPath)
	if err != nil {
		return "", fmt.Errorf("create bill request failed: %w", err)
	}
	raw := resp.String()
	tp.logger.DebugCtx(ctx, "gateway response", zap.Int("statusCode", resp.StatusCode()), zap.String("body", raw))

	var bills []gatewayprotocol.Bill
	if err := json.Unmarshal(resp.Body(), &bills); err != nil {
		if isMaintenance(raw) {
			return "", ErrMaintenance
		}
		// an object (e.g. {"status":"error","msg":...}) is still a parsed rejection
		if json.Valid(resp.Body()) {
			return "", &ResponseError{Raw: raw, Parsed: true}
		}
		return "", &ResponseError{Raw: raw}
	}
	if len(bills) == 0 || bills[0].BillCode == "" {
		if isMaintenance(raw) {
			return "", ErrMaintenance
		}
		return "", &ResponseError{Raw: raw, Parsed: true}
	}
	return bills[0].BillCode, nil
}

// GetBillTransactions lists the successful payments made against a bill.
func (tp *ToyyibPay) GetBillTransactions(ctx context.Context, billCode string) ([]gatewayprotocol.Transaction, error) {
	resp, err := tp.client.
		R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"billCode":          billCode,
			"billpaymentStatus": gatewayprotocol.StatusSuccess,
		}).
		Post(tp.cfg.BaseURL + billTransactionPath)
	if err != nil {
		return nil, fmt.Errorf("get bill transactions request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status code %v", resp.StatusCode())
	}

	var transactions []gatewayprotocol.Transaction
	if err := json.Unmarshal(resp.Body(), &transactions); err != nil {
		return nil, &ResponseError{Raw: resp.String(), Parsed: json.Valid(resp.Body())}
	}
	tp.logger.DebugCtx(ctx, "bill transactions", zap.String("billCode", billCode), zap.Int("count", len(transactions)))
	return transactions, nil
}

func isMaintenance(raw string) bool {
	text := strings.ToLower(raw)
	return strings.Contains(text, "fpx") &&
		(strings.Contains(text, "maintenance") || strings.Contains(text, "maintainance"))
}
