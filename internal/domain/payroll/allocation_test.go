package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pct(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocateLargestRemainder(t *testing.T) {
	shares := []Share{
		{Key: "a", Percent: pct("33.33")},
		{Key: "b", Percent: pct("33.33")},
		{Key: "c", Percent: pct("33.34")},
	}

	out, err := Allocate(1000, shares)
	require.NoError(t, err)
	require.Equal(t, int64(333), out[0].Amount)
	require.Equal(t, int64(333), out[1].Amount)
	require.Equal(t, int64(334), out[2].Amount)
}

func TestAllocateSumsExactly(t *testing.T) {
	shares := []Share{
		{Key: "a", Percent: pct("33.33")},
		{Key: "b", Percent: pct("33.33")},
		{Key: "c", Percent: pct("33.34")},
	}

	for _, total := range []int64{0, 1, 2, 99, 100, 101, 999999937} {
		out, err := Allocate(total, shares)
		require.NoError(t, err)
		var sum int64
		for _, a := range out {
			sum += a.Amount
		}
		require.Equal(t, total, sum, "total %d", total)
	}
}

func TestAllocateTieBreaksByShareOrder(t *testing.T) {
	shares := []Share{
		{Key: "first", Percent: pct("50")},
		{Key: "second", Percent: pct("50")},
	}

	out, err := Allocate(101, shares)
	require.NoError(t, err)
	require.Equal(t, int64(51), out[0].Amount)
	require.Equal(t, int64(50), out[1].Amount)
}

func TestAllocateDeterministic(t *testing.T) {
	shares := []Share{
		{Key: "a", Percent: pct("12.5")},
		{Key: "b", Percent: pct("37.5")},
		{Key: "c", Percent: pct("25")},
		{Key: "d", Percent: pct("25")},
	}

	first, err := Allocate(77777, shares)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Allocate(77777, shares)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := Allocate(100, nil)
	require.ErrorIs(t, err, ErrNoShares)

	_, err = Allocate(-1, []Share{{Key: "a", Percent: pct("100")}})
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Allocate(100, []Share{{Key: "a", Percent: pct("60")}, {Key: "b", Percent: pct("30")}})
	require.ErrorIs(t, err, ErrPercentagesNotNormalized)

	_, err = Allocate(100, []Share{{Key: "a", Percent: pct("150")}, {Key: "b", Percent: pct("-50")}})
	require.ErrorIs(t, err, ErrPercentagesNotNormalized)
}

func TestAllocateWithinTolerance(t *testing.T) {
	// 33.33 * 3 = 99.99, inside the 0.01 tolerance.
	shares := []Share{
		{Key: "a", Percent: pct("33.33")},
		{Key: "b", Percent: pct("33.33")},
		{Key: "c", Percent: pct("33.33")},
	}

	out, err := Allocate(300, shares)
	require.NoError(t, err)
	var sum int64
	for _, a := range out {
		sum += a.Amount
	}
	require.Equal(t, int64(300), sum)
}
