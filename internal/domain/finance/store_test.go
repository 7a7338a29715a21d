package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gestor/internal/domain/payroll"
)

func TestPostSettlementRejectsMismatchedDistributions(t *testing.T) {
	s := &Store{}
	_, err := s.PostSettlement(context.Background(), payroll.Posting{
		CompanyID:   "comp-1",
		PayrollID:   "pay-1",
		Description: "Net pay settlement",
		Amount:      100_00,
		PaymentDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Distributions: []payroll.Allocation{
			{Key: "cc-1", Percent: decimal.NewFromInt(60), Amount: 60_00},
			{Key: "cc-2", Percent: decimal.NewFromInt(40), Amount: 39_99},
		},
	})
	require.ErrorIs(t, err, ErrDistributionSum)
}
