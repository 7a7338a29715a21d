package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"companyId"`
	AccountID   string    `json:"accountId,omitempty"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Date        time.Time `json:"date"`

	OriginPayrollID string `json:"originPayrollId,omitempty"`
	EmployeeID      string `json:"employeeId,omitempty"`
	ReversalOfID    string `json:"reversalOfId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Distributions []Distribution `json:"distributions,omitempty"`
}

// Distribution tags a transaction with one cost-center slice. For a given
// transaction the percentages sum to 100.00 and the amounts sum to the
// transaction amount, both guaranteed by the allocation step upstream.
type Distribution struct {
	TransactionID string          `json:"transactionId"`
	CostCenterID  string          `json:"costCenterId"`
	Percent       decimal.Decimal `json:"percent"`
	Amount        int64           `json:"amount"`
}

const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)
