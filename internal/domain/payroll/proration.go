package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"gestor/internal/domain/contract"
)

// Prorate computes the amount a recurring benefit/discount contributes to
// the period starting at periodStart, for the given calculation scope
// (salary, thirteenth, vacation, ...).
//
// An item restricted to another calendar month, or scoped to another
// calculation context, contributes nothing. Non-proportional items
// contribute their full amount; proportional ones are scaled by
// daysWorked/daysInPeriod with round half up, never exceeding the full
// amount.
func Prorate(bd contract.BenefitDiscount, scope string, periodStart time.Time, daysInPeriod, daysWorked int) int64 {
	if bd.Month != 0 && bd.Month != int(periodStart.Month()) {
		return 0
	}
	if bd.Application != ApplicationAll && bd.Application != scope {
		return 0
	}
	if !bd.IsProportional {
		return bd.Amount
	}
	if daysInPeriod <= 0 || daysWorked <= 0 {
		return 0
	}
	if daysWorked >= daysInPeriod {
		return bd.Amount
	}
	prorated := decimal.NewFromInt(bd.Amount).
		Mul(decimal.NewFromInt(int64(daysWorked))).
		DivRound(decimal.NewFromInt(int64(daysInPeriod)), 0).
		IntPart()
	if prorated > bd.Amount {
		return bd.Amount
	}
	return prorated
}

// roundPercentOf applies a percentage to an amount with round half up.
func roundPercentOf(amount int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(percent).DivRound(oneHundred, 0).IntPart()
}
