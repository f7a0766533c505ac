package gatewayprotocol

const (
	StatusSuccess = "1"
	StatusPending = "2"
	StatusFailed  = "3"
)

// Bill is one element of the createBill response array.
type Bill struct {
	BillCode string `json:"BillCode"`
}

// Callback carries the fields the gateway posts to the callback URL.
type Callback struct {
	BillCode      string `json:"billcode"`
	StatusID      string `json:"status_id"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
	Msg           string `json:"msg"`

	// older integrations
	BillExternalReferenceNo string `json:"billExternalReferenceNo"`
	PaymentStatus           string `json:"payment_status"`
}

// Transaction is one element of the getBillTransactions response array.
type Transaction struct {
	BillName                string `json:"billName"`
	BillExternalReferenceNo string `json:"billExternalReferenceNo"`
	PaymentStatus           string `json:"billpaymentStatus"`
	PaymentAmount           string `json:"billpaymentAmount"`
	InvoiceNo               string `json:"billpaymentInvoiceNo"`
	PaymentDate             string `json:"billPaymentDate"`
}
