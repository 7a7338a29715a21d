package core

import "errors"

var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrCostCenterNotFound = errors.New("cost center not found")
	ErrCostCenterInUse    = errors.New("cost center is referenced by contracts")
	ErrEmployeeInUse      = errors.New("employee has payroll history")
)
