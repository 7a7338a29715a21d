package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is loaded fully materialized: benefit/discounts and cost-center
// weights come along, so downstream calculation code never goes back to
// the database.
type Contract struct {
	ID         string `json:"id"`
	CompanyID  string `json:"companyId"`
	EmployeeID string `json:"employeeId"`

	// Value is the signed base remuneration in minor units: per month,
	// day or hour depending on Type.
	Value int64  `json:"value"`
	Type  string `json:"type"`

	IsPayroll bool `json:"isPayroll"`
	HasINSS   bool `json:"hasInss"`
	HasIRRF   bool `json:"hasIrrf"`
	HasFGTS   bool `json:"hasFgts"`

	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	BenefitDiscounts []BenefitDiscount `json:"benefitDiscounts"`
	CostCenters      []CostCenterShare `json:"costCenters"`
}

type BenefitDiscount struct {
	ID          string `json:"id"`
	ContractID  string `json:"contractId"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Application string `json:"application"`
	Amount      int64  `json:"amount"`

	// Month restricts annual items to a single calendar month (1-12);
	// zero means the item fires every period.
	Month          int  `json:"month,omitempty"`
	IsProportional bool `json:"isProportional"`
	HasTaxes       bool `json:"hasTaxes"`
}

// CostCenterShare is a contract's percentage weight for one cost center.
// The store enforces that a contract's weights sum to 100.00.
type CostCenterShare struct {
	ContractID   string          `json:"contractId"`
	CostCenterID string          `json:"costCenterId"`
	Percent      decimal.Decimal `json:"percent"`
}
