package aggregate

import (
	"math"

	"github.com/shopspring/decimal"
)

// Volatility classifies how much a monthly series moves around its mean.
type Volatility string

const (
	Low    Volatility = "Low"
	Medium Volatility = "Medium"
	High   Volatility = "High"
)

// Coefficient-of-variation thresholds, in percent.
const (
	mediumCV = 30.0
	highCV   = 60.0
)

// Label is the wording shown on the trends view.
func (v Volatility) Label() string {
	switch v {
	case Medium:
		return "Moderate"
	case High:
		return "Variable"
	default:
		return "Stable"
	}
}

// VolatilityOf classifies the coefficient of variation of the non-zero
// values. Zero months are dropped from both the mean and the variance, so a
// series with a single active month is Low.
func VolatilityOf(values []decimal.Decimal) Volatility {
	cv, ok := CoefficientOfVariation(values)
	if !ok {
		return Low
	}
	switch {
	case cv < mediumCV:
		return Low
	case cv < highCV:
		return Medium
	default:
		return High
	}
}

// CoefficientOfVariation returns population stdDev / mean * 100 over the
// positive values. ok is false with fewer than two positive values.
func CoefficientOfVariation(values []decimal.Decimal) (float64, bool) {
	nonZero := make([]float64, 0, len(values))
	for _, v := range values {
		if v.IsPositive() {
			nonZero = append(nonZero, v.InexactFloat64())
		}
	}
	if len(nonZero) < 2 {
		return 0, false
	}

	var sum float64
	for _, v := range nonZero {
		sum += v
	}
	mean := sum / float64(len(nonZero))

	var sq float64
	for _, v := range nonZero {
		sq += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sq / float64(len(nonZero)))
	return stdDev / mean * 100, true
}
