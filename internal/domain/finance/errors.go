package finance

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDistributionSum     = errors.New("distribution amounts do not match transaction amount")
	ErrNothingToReverse    = errors.New("no transactions to reverse for payroll")
	ErrAlreadyReversed     = errors.New("transaction already reversed")
)
