package domain

import (
	"github.com/shopspring/decimal"

	"retail-ledger/internal/errors"
)

// CentPlaces is the number of fractional digits a monetary amount may carry.
const CentPlaces = 2

// ValidateAmount rejects non-positive amounts and amounts finer than a cent.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.ErrInvalidAmount
	}
	return validatePrecision(amount)
}

// ValidateInitialBalance rejects negative balances and amounts finer than a cent.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return errors.ErrNegativeBalance
	}
	return validatePrecision(balance)
}

func validatePrecision(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(CentPlaces)) {
		return errors.ErrInvalidPrecision.WithDetails(amount.String())
	}
	return nil
}
