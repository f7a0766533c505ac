package dbrepository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"go-checkout/internal/checkout/data"
	"go-checkout/pkg/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	orderIDPrefix = "ORD-"
)

type DBStorage interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryValue(ctx context.Context, query string, args []any, dest []any) error
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

type TransactionManager interface {
	DoWithTransaction(ctx context.Context, f func(ctx context.Context) error) error
}

// DBRepository is the postgres-backed order store.
type DBRepository struct {
	storage            DBStorage
	transactionManager TransactionManager
	logger             *logging.ZapLogger
	newID              func() string
}

func New(storage DBStorage, transactionManager TransactionManager, logger *logging.ZapLogger) *DBRepository {
	return &DBRepository{
		storage:            storage,
		transactionManager: transactionManager,
		logger:             logger,
		newID: func() string {
			return orderIDPrefix + uuid.NewString()
		},
	}
}

//go:embed sql/insert_order.sql
var insertOrderQuery string

func (db *DBRepository) CreateOrder(ctx context.Context, order data.NewOrder) (string, error) {
	orderID := db.newID()
	_, err := db.storage.Exec(
		ctx,
		insertOrderQuery,
		orderID,
		string(data.PendingStatus),
		order.Name,
		order.Email,
		order.Phone,
		order.Package,
		order.PaymentMethod,
		order.Amount,
	)
	if err != nil {
		return "", handleSQLError(err)
	}
	db.logger.DebugCtx(ctx, "order inserted", zap.String("orderId", orderID))
	return orderID, nil
}

//go:embed sql/select_order.sql
var selectOrderQuery string

func (db *DBRepository) GetOrder(ctx context.Context, orderID string) (data.Order, error) {
	var (
		order  data.Order
		status string
		amount decimal.Decimal
	)
	err := db.storage.QueryValue(
		ctx,
		selectOrderQuery,
		[]any{orderID},
		[]any{&order.OrderID, &status, &order.Name, &order.Email, &order.Phone, &order.Package, &amount},
	)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return data.Order{}, data.ErrOrderNotFound
		default:
			return data.Order{}, fmt.Errorf("failed to select order: %w", handleSQLError(err))
		}
	}
	order.Status = data.ParseStatus(status)
	order.Amount = amount
	return order, nil
}

//go:embed sql/mark_order_paid.sql
var markOrderPaidQuery string

//go:embed sql/insert_payment.sql
var insertPaymentQuery string

//go:embed sql/select_order_exists.sql
var selectOrderExistsQuery string

// MarkPaid reports whether this call moved the order to Paid. False with a nil
// error means the order was already Paid.
func (db *DBRepository) MarkPaid(ctx context.Context, confirmation data.PaymentConfirmation) (bool, error) {
	transitioned := false
	err := db.transactionManager.DoWithTransaction(ctx, func(ctx context.Context) error {
		tag, err := db.storage.Exec(ctx, markOrderPaidQuery, confirmation.OrderID)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", handleSQLError(err))
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := db.storage.QueryValue(ctx, selectOrderExistsQuery, []any{confirmation.OrderID}, []any{&exists})
			if err != nil {
				return fmt.Errorf("failed to check order: %w", handleSQLError(err))
			}
			if !exists {
				return data.ErrOrderNotFound
			}
			return nil
		}
		transitioned = true
		_, err = db.storage.Exec(
			ctx,
			insertPaymentQuery,
			confirmation.OrderID,
			confirmation.BillCode,
			confirmation.TransactionID,
			confirmation.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", handleSQLError(err))
		}
		return nil
	})
	if err != nil {
		return false, err //nolint:wrapcheck // unnecessary
	}
	return transitioned, nil
}

//go:embed sql/attach_bill.sql
var attachBillQuery string

func (db *DBRepository) AttachBill(ctx context.Context, orderID string, billCode string) error {
	_, err := db.storage.Exec(ctx, attachBillQuery, orderID, billCode)
	if err != nil {
		return fmt.Errorf("failed to attach bill: %w", handleSQLError(err))
	}
	return nil
}

//go:embed sql/select_pending_bills.sql
var selectPendingBillsQuery string

func (db *DBRepository) ListPendingBills(
	ctx context.Context,
	limit int,
	createdAfter time.Time,
	createdBefore time.Time,
) ([]data.PendingBill, error) {
	rows, err := db.storage.Query(ctx, selectPendingBillsQuery, createdAfter, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending bills: %w", handleSQLError(err))
	}
	defer rows.Close()

	bills := make([]data.PendingBill, 0, limit)
	for rows.Next() {
		var bill data.PendingBill
		if err := rows.Scan(&bill.OrderID, &bill.BillCode); err != nil {
			return nil, fmt.Errorf("failed to scan pending bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending bills: %w", err)
	}
	return bills, nil
}

func handleSQLError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return data.ErrUniqueConstraintViolation
		}
	}
	return err
}
