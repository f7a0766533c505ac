package handlers

import (
	"context"
	"errors"
	"net/http"

	"go-checkout/internal/checkout/analytics"
	"go-checkout/internal/checkout/service"
	"go-checkout/internal/common/conversionprotocol"
	"go-checkout/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ConversionRelayHandler struct {
	service ConversionRelayService
	logger  *logging.ZapLogger
}

type ConversionRelayService interface {
	Relay(ctx context.Context, custom analytics.Custom) error
}

type ConversionInput struct {
	EventName    string           `json:"eventName"`
	EventID      string           `json:"eventId"`
	Value        *decimal.Decimal `json:"value"`
	Currency     string           `json:"currency"`
	CustomerData struct {
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"customerData"`
	ContentData struct {
		ContentName     string   `json:"content_name"`
		ContentCategory string   `json:"content_category"`
		ContentIDs      []string `json:"content_ids"`
		ContentType     string   `json:"content_type"`
	} `json:"contentData"`
}

type conversionOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewConversionRelayHandler(service ConversionRelayService, logger *logging.ZapLogger) *ConversionRelayHandler {
	return &ConversionRelayHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ConversionRelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer closeBody(ctx, r.Body, h.logger)

	input, err := decodeJSON[ConversionInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(ctx, "error decoding input", zap.Error(err))
		writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	err = h.service.Relay(ctx, analytics.Custom{
		EventName: input.EventName,
		EventID:   input.EventID,
		Currency:  input.Currency,
		Value:     input.Value,
		Customer: analytics.Customer{
			Email:     input.CustomerData.Email,
			Phone:     input.CustomerData.Phone,
			FirstName: input.CustomerData.FirstName,
			LastName:  input.CustomerData.LastName,
		},
		Client: clientFromRequest(r),
		Content: conversionprotocol.CustomData{
			ContentName:     input.ContentData.ContentName,
			ContentCategory: input.ContentData.ContentCategory,
			ContentIDs:      input.ContentData.ContentIDs,
			ContentType:     input.ContentData.ContentType,
		},
	})
	if err != nil {
		var rejected *service.ConversionRejectedError
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.As(err, &rejected):
			h.logger.WarnCtx(ctx, "conversion event rejected", zap.String("details", rejected.Details))
			writeError(ctx, w, h.logger, http.StatusBadRequest, errorResponse{
				Error:   "Failed to send conversion event.",
				Details: rawDetails(rejected.Details),
			})
		case errors.Is(err, service.ErrConversionsUnavailable):
			writeError(ctx, w, h.logger, http.StatusServiceUnavailable, errorResponse{Error: "Conversion tracking is not configured."})
		default:
			h.logger.ErrorCtx(ctx, "conversion relay handler error", zap.Error(err))
			writeError(ctx, w, h.logger, http.StatusInternalServerError, errorResponse{
				Error:   internalErrorMessage,
				Details: err.Error(),
			})
		}
		return
	}

	writeJSON(ctx, w, h.logger, http.StatusOK, conversionOutput{
		Success: true,
		Message: "Conversion event sent successfully",
	})
}
