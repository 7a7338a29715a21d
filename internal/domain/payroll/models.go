package payroll

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payroll is the aggregate root for one company pay period. Employees and
// their items are always loaded and saved together; totals are re-derived
// from the full item set on every mutation.
type Payroll struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"companyId"`
	PeriodStart     time.Time `json:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd"`
	TotalGrossPay   int64     `json:"totalGrossPay"`
	TotalDeductions int64     `json:"totalDeductions"`
	TotalNetPay     int64     `json:"totalNetPay"`
	TotalINSS       int64     `json:"totalInss"`
	TotalFGTS       int64     `json:"totalFgts"`

	// ThirteenthPercent is zero while no thirteenth salary is applied.
	ThirteenthPercent decimal.Decimal `json:"thirteenthPercent"`
	ThirteenthTaxes   bool            `json:"thirteenthTaxes"`

	IsClosed    bool       `json:"isClosed"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	ClosedBy    string     `json:"closedBy,omitempty"`
	PaidINSS    int64      `json:"paidInss"`
	PaidFGTS    int64      `json:"paidFgts"`
	AccountID   string     `json:"accountId,omitempty"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Employees []PayrollEmployee `json:"employees"`
}

type PayrollEmployee struct {
	ID         string `json:"id"`
	PayrollID  string `json:"payrollId"`
	EmployeeID string `json:"employeeId"`
	ContractID string `json:"contractId"`

	DaysInPeriod int `json:"daysInPeriod"`
	DaysWorked   int `json:"daysWorked"`
	HoursWorked  int `json:"hoursWorked"`

	IsOnVacation    bool       `json:"isOnVacation"`
	VacationDays    int        `json:"vacationDays"`
	VacationStart   *time.Time `json:"vacationStart,omitempty"`
	VacationTaxes   bool       `json:"vacationTaxes"`
	VacationAdvance bool       `json:"vacationAdvance"`
	VacationNotes   string     `json:"vacationNotes,omitempty"`
	AdvanceAmount   int64      `json:"advanceAmount"`

	TotalGrossPay   int64 `json:"totalGrossPay"`
	TotalDeductions int64 `json:"totalDeductions"`
	TotalNetPay     int64 `json:"totalNetPay"`
	TotalINSS       int64 `json:"totalInss"`
	TotalFGTS       int64 `json:"totalFgts"`

	Items []Item `json:"items"`
}

// Item is a single signed payroll line. Amount is always non-negative; the
// direction is carried by Type.
type Item struct {
	ID                 string          `json:"id"`
	PayrollEmployeeID  string          `json:"payrollEmployeeId"`
	Description        string          `json:"description"`
	Type               string          `json:"type"`
	Category           string          `json:"category"`
	Application        string          `json:"application"`
	Amount             int64           `json:"amount"`
	ReferenceID        string          `json:"referenceId,omitempty"`
	CalculationBasis   string          `json:"calculationBasis,omitempty"`
	CalculationDetails json.RawMessage `json:"calculationDetails,omitempty"`
	IsManual           bool            `json:"isManual"`
	Installment        int             `json:"installment,omitempty"`
}

// Share is one weighted participant in an allocation, identified by an
// opaque key (a cost center id in practice).
type Share struct {
	Key     string
	Percent decimal.Decimal
}

type Allocation struct {
	Key     string          `json:"costCenterId"`
	Percent decimal.Decimal `json:"percent"`
	Amount  int64           `json:"amount"`
}

// Advance is a cross-period adjustment scheduled for a future pay period,
// typically created when vacation pay is advanced against next month's
// salary. It is consumed by the period that contains DueDate.
type Advance struct {
	ID                string     `json:"id"`
	CompanyID         string     `json:"companyId"`
	EmployeeID        string     `json:"employeeId"`
	Description       string     `json:"description"`
	Amount            int64      `json:"amount"`
	DueDate           time.Time  `json:"dueDate"`
	SourcePayrollID   string     `json:"sourcePayrollId"`
	ConsumedPayrollID string     `json:"consumedPayrollId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	ConsumedAt        *time.Time `json:"consumedAt,omitempty"`
}

// Rates holds withholding percentages. The legal tables are configuration,
// not code; contract flags decide which of these apply to an employee.
type Rates struct {
	INSS decimal.Decimal
	IRRF decimal.Decimal
	FGTS decimal.Decimal
}

// Posting is the Transaction Poster contract: one settlement to record,
// already split across cost centers.
type Posting struct {
	CompanyID         string
	PayrollID         string
	PayrollEmployeeID string
	EmployeeID        string
	AccountID         string
	Description       string
	Amount            int64
	PaymentDate       time.Time
	Distributions     []Allocation
}
