package data

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Status string

const (
	NullStatus    = Status("")
	PendingStatus = Status("Pending")
	PaidStatus    = Status("Paid")
	FailedStatus  = Status("Failed")
)

// ParseStatus maps store spellings onto the known statuses; anything else is
// kept verbatim and treated as not paid.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PendingStatus
	case "paid":
		return PaidStatus
	case "failed":
		return FailedStatus
	}
	return Status(strings.TrimSpace(s))
}

func (s Status) IsPaid() bool {
	return s == PaidStatus
}

type Order struct {
	OrderID string
	Status  Status
	Name    string
	Email   string
	Phone   string
	Package string
	Amount  decimal.Decimal
}

type NewOrder struct {
	Name          string
	Email         string
	Phone         string
	Package       string
	PaymentMethod string
	Amount        decimal.Decimal
}

// PaymentConfirmation is what the gateway told us about a successful payment.
type PaymentConfirmation struct {
	OrderID       string
	BillCode      string
	TransactionID string
	Amount        string
}

// PendingBill is an unpaid order that already has a gateway bill.
type PendingBill struct {
	OrderID  string
	BillCode string
}
