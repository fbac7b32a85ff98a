package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind is the product type of an account. It decides the display label
// and the identifier prefix.
type AccountKind string

const (
	KindChecking   AccountKind = "checking"
	KindSavings    AccountKind = "savings"
	KindCreditCard AccountKind = "credit_card"
	KindLoan       AccountKind = "loan"
)

var accountKinds = map[AccountKind]struct {
	label  string
	prefix string
}{
	KindChecking:   {label: "Checking Account", prefix: "CHK"},
	KindSavings:    {label: "Savings Account", prefix: "SAV"},
	KindCreditCard: {label: "Credit Card", prefix: "CRD"},
	KindLoan:       {label: "Loan Account", prefix: "LN"},
}

func (k AccountKind) Valid() bool {
	_, ok := accountKinds[k]
	return ok
}

// Label is the account type name shown to users.
func (k AccountKind) Label() string {
	return accountKinds[k].label
}

// Prefix is the account number prefix, "ACC" for unknown kinds.
func (k AccountKind) Prefix() string {
	if info, ok := accountKinds[k]; ok {
		return info.prefix
	}
	return "ACC"
}

// DepositBearing reports whether the kind holds customer deposits.
func (k AccountKind) DepositBearing() bool {
	return k == KindChecking || k == KindSavings
}

// Account is a read-side snapshot. The store hands out copies; balances only
// change through the store's mutation entry point.
type Account struct {
	ID        string          `json:"account_id"`
	Kind      AccountKind     `json:"kind"`
	Label     string          `json:"label"`
	OwnerID   string          `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
