package handlers

import (
	"context"
	"errors"
	"net/http"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/checkout/service"
	"go-checkout/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const OrderIDParam = "orderId"

type OrderStatusHandler struct {
	service OrderLookupService
	logger  *logging.ZapLogger
}

type OrderLookupService interface {
	GetOrder(ctx context.Context, orderID string) (data.Order, error)
}

type OrderStatusOutput struct {
	OrderID string          `json:"orderId"`
	Status  string          `json:"status"`
	Name    string          `json:"name,omitempty"`
	Email   string          `json:"email,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	Package string          `json:"package,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

func NewOrderStatusHandler(service OrderLookupService, logger *logging.ZapLogger) *OrderStatusHandler {
	return &OrderStatusHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, OrderIDParam)

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(ctx, w, h.logger, http.StatusNotFound, errorResponse{Error: "Order not found"})
		default:
			h.logger.ErrorCtx(ctx, "error getting order", zap.Error(err), zap.String("orderId", orderID))
			writeError(ctx, w, h.logger, http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
		}
		return
	}

	writeJSON(ctx, w, h.logger, http.StatusOK, OrderStatusOutput{
		OrderID: order.OrderID,
		Status:  string(order.Status),
		Name:    order.Name,
		Email:   order.Email,
		Phone:   order.Phone,
		Package: order.Package,
		Amount:  order.Amount,
	})
}
