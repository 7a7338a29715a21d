package contract

import "errors"

var (
	ErrContractNotFound    = errors.New("contract not found")
	ErrInvalidDistribution = errors.New("cost center percentages must sum to 100.00")
	ErrInactiveCostCenter  = errors.New("cost center is inactive")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInvalidKind         = errors.New("kind must be benefit or discount")
	ErrInvalidApplication  = errors.New("unknown application scope")
	ErrInvalidMonth        = errors.New("month must be between 1 and 12")
)
