package payroll

import "errors"

var (
	ErrPayrollNotFound           = errors.New("payroll not found")
	ErrPayrollClosed             = errors.New("payroll is closed")
	ErrPayrollNotClosed          = errors.New("payroll is not closed")
	ErrEmptyPayroll              = errors.New("payroll has no employees")
	ErrOverlappingPeriod         = errors.New("another payroll overlaps the period")
	ErrInvalidPeriod             = errors.New("period end must not be before period start")
	ErrEmployeeNotFound          = errors.New("payroll employee not found")
	ErrItemNotFound              = errors.New("payroll item not found")
	ErrNegativeAmount            = errors.New("amount must not be negative")
	ErrInvalidItemType           = errors.New("item type must be credit or debit")
	ErrNoShares                  = errors.New("allocation requires at least one share")
	ErrPercentagesNotNormalized  = errors.New("share percentages must sum to 100.00")
	ErrThirteenthNotApplied      = errors.New("thirteenth salary was not applied")
	ErrThirteenthAlreadyApplied  = errors.New("thirteenth salary already applied")
	ErrVacationNotApplied        = errors.New("vacation was not applied")
	ErrVacationAlreadyApplied    = errors.New("vacation already applied")
	ErrInvalidVacationDays       = errors.New("vacation days must be between 1 and the annual entitlement")
	ErrAggregateMismatch         = errors.New("stored totals do not match item sums")
)
