package service

import (
	"context"
	"errors"
	"fmt"

	"go-checkout/internal/checkout/data"
)

type OrderLookup struct {
	orders OrderStore
}

func NewOrderLookup(orders OrderStore) *OrderLookup {
	return &OrderLookup{
		orders: orders,
	}
}

func (o *OrderLookup) GetOrder(ctx context.Context, orderID string) (data.Order, error) {
	order, err := o.orders.GetOrder(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrOrderNotFound):
			return data.Order{}, ErrOrderNotFound
		default:
			return data.Order{}, fmt.Errorf("error getting order: %w", err)
		}
	}
	return order, nil
}
