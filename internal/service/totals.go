package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/zidnyyasrah/point-of-sale/internal/domain"
)

// SumTotals adds transaction totals in decimal arithmetic. A total that is not
// a finite number contributes 0.
func SumTotals(transactions []domain.Transaction) float64 {
	sum := decimal.Zero
	for _, tx := range transactions {
		if math.IsNaN(tx.Total) || math.IsInf(tx.Total, 0) {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(tx.Total))
	}
	f, _ := sum.Float64()
	return f
}

func sumLines(lines []domain.CommitLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(decimalOf(line.PriceSell).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

func decimalOf(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}
