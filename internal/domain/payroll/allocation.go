package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// percentTolerance is the accepted deviation from 100.00 for a share list.
var percentTolerance = decimal.NewFromFloat(0.01)

var oneHundred = decimal.NewFromInt(100)

// Allocate splits total across shares by percentage using the largest
// remainder method: each share first receives floor(total*percent/100),
// then the leftover minor units go one at a time to the shares with the
// largest fractional part, ties broken by share order. The returned
// amounts always sum exactly to total.
//
// The same routine backs contract-to-cost-center and
// transaction-to-cost-center distributions.
func Allocate(total int64, shares []Share) ([]Allocation, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if total < 0 {
		return nil, ErrNegativeAmount
	}

	sum := decimal.Zero
	for _, share := range shares {
		if share.Percent.IsNegative() {
			return nil, ErrPercentagesNotNormalized
		}
		sum = sum.Add(share.Percent)
	}
	if sum.Sub(oneHundred).Abs().GreaterThan(percentTolerance) {
		return nil, ErrPercentagesNotNormalized
	}

	type fraction struct {
		index int
		part  decimal.Decimal
	}

	totalDec := decimal.NewFromInt(total)
	out := make([]Allocation, len(shares))
	fractions := make([]fraction, len(shares))
	var allocated int64
	for i, share := range shares {
		exact := totalDec.Mul(share.Percent).Div(oneHundred)
		floor := exact.Floor()
		out[i] = Allocation{Key: share.Key, Percent: share.Percent, Amount: floor.IntPart()}
		fractions[i] = fraction{index: i, part: exact.Sub(floor)}
		allocated += out[i].Amount
	}

	// Stable sort keeps the original order for equal fractional parts.
	sort.SliceStable(fractions, func(i, j int) bool {
		return fractions[i].part.GreaterThan(fractions[j].part)
	})

	remainder := total - allocated
	for i := int64(0); i < remainder; i++ {
		out[fractions[int(i)%len(fractions)].index].Amount++
	}
	// A share sum slightly above 100.00 (within tolerance) can over-allocate
	// on large totals; take the excess back from the smallest fractions.
	for i := 0; remainder < 0; i = (i + 1) % len(fractions) {
		idx := fractions[len(fractions)-1-i].index
		if out[idx].Amount > 0 {
			out[idx].Amount--
			remainder++
		}
	}

	return out, nil
}
