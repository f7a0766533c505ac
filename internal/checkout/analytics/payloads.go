package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"go-checkout/internal/checkout/data"
	"go-checkout/internal/common/conversionprotocol"

	"github.com/shopspring/decimal"
)

const (
	checkoutEventIDPrefix = "checkout_"
	purchaseEventIDPrefix = "purchase_"
)

type ContentConfig struct {
	Currency          string
	ContentCategory   string
	ContentName       string
	ContentID         string
	CheckoutSourceURL string
	PurchaseSourceURL string
	RelaySourceURL    string
}

type Customer struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

type Client struct {
	UserAgent string
	IPAddress string
}

type Checkout struct {
	OrderID  string
	Customer Customer
	Client   Client
	Amount   decimal.Decimal
}

type Custom struct {
	EventName string
	EventID   string
	Currency  string
	// Value is nil when the caller sent none.
	Value    *decimal.Decimal
	Customer Customer
	Client   Client
	Content  conversionprotocol.CustomData
}

func CheckoutEventID(orderID string) string {
	return checkoutEventIDPrefix + orderID
}

// PurchaseEventID is stable per order so the conversions endpoint drops repeats.
func PurchaseEventID(orderID string) string {
	return purchaseEventIDPrefix + orderID
}

func CheckoutInitiatedEvent(cfg ContentConfig, checkout Checkout, now time.Time) conversionprotocol.Event {
	return conversionprotocol.Event{
		EventName:      conversionprotocol.CheckoutInitiated,
		EventTime:      now.Unix(),
		ActionSource:   conversionprotocol.ActionSourceWebsite,
		EventSourceURL: cfg.CheckoutSourceURL,
		EventID:        CheckoutEventID(checkout.OrderID),
		UserData:       userData(checkout.Customer, checkout.Client),
		CustomData: conversionprotocol.CustomData{
			Currency:        cfg.Currency,
			Value:           minorUnits(checkout.Amount),
			ContentName:     cfg.ContentName,
			ContentCategory: cfg.ContentCategory,
			ContentIDs:      []string{cfg.ContentID},
			ContentType:     conversionprotocol.ContentTypeProduct,
		},
	}
}

func PurchaseEvent(cfg ContentConfig, order data.Order, now time.Time) conversionprotocol.Event {
	return conversionprotocol.Event{
		EventName:      conversionprotocol.Purchase,
		EventTime:      now.Unix(),
		ActionSource:   conversionprotocol.ActionSourceWebsite,
		EventSourceURL: cfg.PurchaseSourceURL,
		EventID:        PurchaseEventID(order.OrderID),
		UserData:       userData(CustomerFromOrder(order), Client{}),
		CustomData: conversionprotocol.CustomData{
			Currency:        cfg.Currency,
			Value:           minorUnits(order.Amount),
			ContentName:     order.Package,
			ContentCategory: cfg.ContentCategory,
			ContentIDs:      []string{order.OrderID},
			ContentType:     conversionprotocol.ContentTypeProduct,
		},
	}
}

func CustomEvent(cfg ContentConfig, custom Custom, now time.Time) conversionprotocol.Event {
	currency := custom.Currency
	if currency == "" {
		currency = cfg.Currency
	}
	value := ""
	if custom.Value != nil {
		value = minorUnits(*custom.Value)
	}
	content := custom.Content
	content.Currency = currency
	content.Value = value
	return conversionprotocol.Event{
		EventName:      custom.EventName,
		EventTime:      now.Unix(),
		ActionSource:   conversionprotocol.ActionSourceWebsite,
		EventSourceURL: cfg.RelaySourceURL,
		EventID:        custom.EventID,
		UserData:       userData(custom.Customer, custom.Client),
		CustomData:     content,
	}
}

func CustomerFromOrder(order data.Order) Customer {
	first, last := SplitName(order.Name)
	return Customer{
		Email:     order.Email,
		Phone:     order.Phone,
		FirstName: first,
		LastName:  last,
	}
}

// SplitName splits on the first run of whitespace.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func userData(customer Customer, client Client) conversionprotocol.UserData {
	return conversionprotocol.UserData{
		Email:           hash(strings.ToLower(strings.TrimSpace(customer.Email))),
		Phone:           hash(digitsOnly(customer.Phone)),
		FirstName:       hash(strings.ToLower(strings.TrimSpace(customer.FirstName))),
		LastName:        hash(strings.ToLower(strings.TrimSpace(customer.LastName))),
		ClientUserAgent: client.UserAgent,
		ClientIPAddress: client.IPAddress,
	}
}

func hash(normalized string) string {
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func minorUnits(amount decimal.Decimal) string {
	return amount.Mul(decimal.New(100, 0)).Round(0).String()
}
