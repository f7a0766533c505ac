package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"go-checkout/internal/checkout/service"
	"go-checkout/internal/common/gatewayprotocol"
	"go-checkout/pkg/logging"

	"go.uber.org/zap"
)

const maxCallbackMemory = 1 << 20

var errEmptyCallback = errors.New("callback body is empty")

type PaymentCallbackHandler struct {
	service ReconciliationService
	logger  *logging.ZapLogger
}

type ReconciliationService interface {
	Reconcile(ctx context.Context, payload service.WebhookPayload) (service.Outcome, error)
}

func NewPaymentCallbackHandler(service ReconciliationService, logger *logging.ZapLogger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer closeBody(ctx, r.Body, h.logger)

	callback, err := parseCallback(r)
	if err != nil {
		h.logger.WarnCtx(ctx, "error parsing payment callback", zap.Error(err))
		writeText(ctx, w, h.logger, http.StatusBadRequest, "Bad Request: Body could not be parsed.")
		return
	}

	// The gateway may hang up before we finish; the transition must not be cut short.
	outcome, err := h.service.Reconcile(context.WithoutCancel(ctx), payloadFromCallback(callback))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookMalformed):
			writeText(ctx, w, h.logger, http.StatusBadRequest, "Bad Request: Missing Order ID")
		default:
			h.logger.ErrorCtx(ctx, "payment callback handler error", zap.Error(err))
			writeText(ctx, w, h.logger, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	h.logger.InfoCtx(ctx, "payment callback handled", zap.String("outcome", string(outcome)))
	writeText(ctx, w, h.logger, http.StatusOK, "OK")
}

func parseCallback(r *http.Request) (gatewayprotocol.Callback, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		return decodeJSON[gatewayprotocol.Callback](r.Body)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxCallbackMemory); err != nil {
			return gatewayprotocol.Callback{}, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return gatewayprotocol.Callback{}, err
		}
	}
	if len(r.PostForm) == 0 {
		return gatewayprotocol.Callback{}, errEmptyCallback
	}
	form := r.PostForm
	return gatewayprotocol.Callback{
		BillCode:                form.Get("billcode"),
		StatusID:                form.Get("status_id"),
		OrderID:                 form.Get("order_id"),
		Amount:                  form.Get("amount"),
		TransactionID:           form.Get("transaction_id"),
		Msg:                     form.Get("msg"),
		BillExternalReferenceNo: form.Get("billExternalReferenceNo"),
		PaymentStatus:           form.Get("payment_status"),
	}, nil
}

func payloadFromCallback(cb gatewayprotocol.Callback) service.WebhookPayload {
	payload := service.WebhookPayload{
		BillCode:      cb.BillCode,
		StatusID:      cb.StatusID,
		OrderID:       cb.OrderID,
		TransactionID: cb.TransactionID,
		Amount:        cb.Amount,
		Msg:           cb.Msg,
	}
	if payload.OrderID == "" {
		payload.OrderID = cb.BillExternalReferenceNo
	}
	if payload.StatusID == "" {
		payload.StatusID = cb.PaymentStatus
	}
	return payload
}
