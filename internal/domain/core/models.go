package core

import "time"

type Company struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TradeName  string    `json:"tradeName,omitempty"`
	TaxID      string    `json:"taxId,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Employee struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"companyId"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Document    string     `json:"document,omitempty"`
	Role        string     `json:"role,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	HireDate    *time.Time `json:"hireDate,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Account is a financial account payroll settlements debit against.
type Account struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type CostCenter struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"

	UserStatusActive = "active"
)
