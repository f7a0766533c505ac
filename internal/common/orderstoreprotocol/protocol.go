package orderstoreprotocol

import (
	"bytes"
	"encoding/json"
)

const (
	StatusSuccess = "success"

	ActionCreateOrder   = "createOrder"
	ActionGetOrder      = "getOrder"
	ActionUpdatePayment = "updatePayment"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
	Order   *Order `json:"order"`
}

// Order mirrors a spreadsheet row; the script returns amounts as numbers or strings.
type Order struct {
	OrderID Cell `json:"orderId"`
	Status  Cell `json:"status"`
	Name    Cell `json:"name"`
	Email   Cell `json:"email"`
	Phone   Cell `json:"phone"`
	Package Cell `json:"package"`
	Amount  any  `json:"amount"`
}

// Cell is a text column that the sheet may hand back as a number or boolean.
// Numbers keep their literal digits, so 60123456789 stays "60123456789".
type Cell string

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*c = Cell(n)
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err != nil {
		return err
	}
	if flag {
		*c = "true"
	} else {
		*c = "false"
	}
	return nil
}
