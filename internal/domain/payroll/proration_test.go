package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gestor/internal/domain/contract"
)

var january = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestProrateProportional(t *testing.T) {
	bd := contract.BenefitDiscount{
		Description:    "Meal allowance",
		Kind:           contract.KindBenefit,
		Application:    ApplicationSalary,
		Amount:         10000,
		IsProportional: true,
	}

	// 10000 * 20/30 = 6666.67, round half up.
	require.Equal(t, int64(6667), Prorate(bd, ApplicationSalary, january, 30, 20))
}

func TestProrateFullWhenNotProportional(t *testing.T) {
	bd := contract.BenefitDiscount{Application: ApplicationSalary, Amount: 5000}
	require.Equal(t, int64(5000), Prorate(bd, ApplicationSalary, january, 30, 1))
}

func TestProrateCapsAtFullAmount(t *testing.T) {
	bd := contract.BenefitDiscount{Application: ApplicationSalary, Amount: 10000, IsProportional: true}
	require.Equal(t, int64(10000), Prorate(bd, ApplicationSalary, january, 30, 30))
	require.Equal(t, int64(10000), Prorate(bd, ApplicationSalary, january, 30, 45))
}

func TestProrateZeroDays(t *testing.T) {
	bd := contract.BenefitDiscount{Application: ApplicationSalary, Amount: 10000, IsProportional: true}
	require.Zero(t, Prorate(bd, ApplicationSalary, january, 30, 0))
	require.Zero(t, Prorate(bd, ApplicationSalary, january, 0, 0))
}

func TestProrateMonthRestriction(t *testing.T) {
	bd := contract.BenefitDiscount{Application: ApplicationSalary, Amount: 8000, Month: 12}

	require.Zero(t, Prorate(bd, ApplicationSalary, january, 30, 30))

	december := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, int64(8000), Prorate(bd, ApplicationSalary, december, 31, 31))
}

func TestProrateScope(t *testing.T) {
	bd := contract.BenefitDiscount{Application: ApplicationVacation, Amount: 8000}
	require.Zero(t, Prorate(bd, ApplicationSalary, january, 30, 30))
	require.Equal(t, int64(8000), Prorate(bd, ApplicationVacation, january, 30, 30))

	all := contract.BenefitDiscount{Application: ApplicationAll, Amount: 8000}
	require.Equal(t, int64(8000), Prorate(all, ApplicationSalary, january, 30, 30))
	require.Equal(t, int64(8000), Prorate(all, ApplicationThirteenth, january, 30, 30))
}
