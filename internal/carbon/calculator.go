// Package carbon converts activity amounts into carbon values and records
// the resulting emissions.
package carbon

import "github.com/emilianohg/carbontrack/internal/models"

// Result is the outcome of applying one emission factor to an amount.
// Cost is nil unless the factor carries a non-zero price.
type Result struct {
	CarbonValue float64
	Cost        *float64
}

// Calculate applies factor to amount. A priced factor treats amount as money
// spent: the quantity consumed is amount/price. A zero price counts as no price.
func Calculate(amount float64, factor models.EmissionFactor) Result {
	if factor.Price == nil || *factor.Price == 0 {
		return Result{CarbonValue: amount * factor.EmissionFactor}
	}
	price := *factor.Price
	cost := amount * price
	return Result{
		CarbonValue: amount / price * factor.EmissionFactor,
		Cost:        &cost,
	}
}
