package handlers

import (
	"context"
	"errors"
	"net/http"

	"go-checkout/internal/checkout/service"
	"go-checkout/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maintenanceCode    = "FPX_MAINTENANCE"
	maintenanceMessage = "Online Transfer FPX Sedang maintainance, Sila gunakan QR untuk Pembayaran. Terima kasih"
)

type BillCreationHandler struct {
	service BillingService
	logger  *logging.ZapLogger
}

type BillingService interface {
	CreateBill(ctx context.Context, req service.BillRequest) (service.Bill, error)
}

type BillCreationInput struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Amount          decimal.Decimal `json:"amount"`
	BillDescription string          `json:"billDescription"`
	OrderID         string          `json:"orderId"`
}

type BillCreationOutput struct {
	Success                 bool   `json:"success"`
	BillCode                string `json:"billCode"`
	BillURL                 string `json:"billUrl"`
	BillExternalReferenceNo string `json:"billExternalReferenceNo"`
	OrderID                 string `json:"orderId"`
}

func NewBillCreationHandler(service BillingService, logger *logging.ZapLogger) *BillCreationHandler {
	return &BillCreationHandler{
		service: service,
		logger:  logger,
	}
}

func (h *BillCreationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer closeBody(ctx, r.Body, h.logger)

	input, err := decodeJSON[BillCreationInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(ctx, "error decoding input", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	bill, err := h.service.CreateBill(ctx, service.BillRequest{
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Amount:          input.Amount,
		BillDescription: input.BillDescription,
		OrderID:         input.OrderID,
		Client:          clientFromRequest(r),
	})
	if err != nil {
		h.writeBillError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, h.logger, http.StatusOK, BillCreationOutput{
		Success:                 true,
		BillCode:                bill.BillCode,
		BillURL:                 bill.BillURL,
		BillExternalReferenceNo: bill.OrderID,
		OrderID:                 bill.OrderID,
	})
}

func (h *BillCreationHandler) writeBillError(ctx context.Context, w http.ResponseWriter, err error) {
	var gatewayErr *service.GatewayError
	switch {
	case errors.Is(err, service.ErrValidation):
		h.logger.DebugCtx(ctx, "invalid bill request", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrOrderRegistration):
		h.logger.ErrorCtx(ctx, "order registration failed", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusInternalServerError, errorResponse{
			Error:   "Could not create order in our system. Please try again.",
			Details: err.Error(),
		})
	case errors.Is(err, service.ErrGatewayMaintenance):
		h.logger.WarnCtx(ctx, "payment gateway under maintenance", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusServiceUnavailable, errorResponse{
			Error:   maintenanceCode,
			Message: maintenanceMessage,
		})
	case errors.As(err, &gatewayErr) && gatewayErr.Rejected:
		h.logger.ErrorCtx(ctx, "payment gateway rejected bill", zap.String("response", gatewayErr.Raw))
		writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{
			Error:   "Failed to create payment bill.",
			Details: rawDetails(gatewayErr.Raw),
		})
	case errors.As(err, &gatewayErr) && gatewayErr.Raw != "":
		h.logger.ErrorCtx(ctx, "invalid payment gateway response", zap.String("response", gatewayErr.Raw))
		writeError(ctx, w, h.logger, http.StatusInternalServerError, errorResponse{
			Error:   "Invalid response from payment provider.",
			Details: gatewayErr.Raw,
		})
	default:
		h.logger.ErrorCtx(ctx, "bill creation handler error", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusInternalServerError, errorResponse{
			Error:   internalErrorMessage,
			Details: err.Error(),
		})
	}
}
