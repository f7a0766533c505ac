package service

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.New(100, 0)

// ToMinorUnits converts a whole-unit amount (49.90) into minor units (4990).
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, &ValidationError{Message: "amount must be greater than zero"}
	}
	minor := amount.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, &ValidationError{Message: "amount must have at most two decimal places"}
	}
	return minor.IntPart(), nil
}
