package utils

import (
	"math"
)

// roundFloat rounds a float64 to a specified number of decimal places.
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Percentage returns part as a percentage of total, rounded to two decimals.
// A zero total yields 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundFloat(float64(part)*100/float64(total), 2)
}
