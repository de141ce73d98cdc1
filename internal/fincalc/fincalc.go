// Package fincalc holds the project-evaluation math: NPV, IRR via
// Newton-Raphson, and ROI. Rates and cash-flow series use float64; these are
// analytics, not postings, and monetary rows stay decimal end to end.
package fincalc

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	maxIterations = 100
	rateTolerance = 1e-8
)

// NPV discounts a cash-flow series at the given rate. cashFlows[0] is at
// t=0 (undiscounted), cashFlows[t] at period t.
func NPV(cashFlows []float64, rate float64) float64 {
	npv := 0.0
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// npvDerivative is the analytic d(NPV)/d(rate).
func npvDerivative(cashFlows []float64, rate float64) float64 {
	d := 0.0
	for t, cf := range cashFlows {
		if t == 0 {
			continue
		}
		d -= float64(t) * cf / math.Pow(1+rate, float64(t)+1)
	}
	return d
}

// IRR solves NPV(cashFlows, rate) = 0 by Newton-Raphson starting from guess.
// It stops when the rate delta between iterations drops below 1e-8 or after
// 100 iterations, returning the last computed rate either way; there is no
// explicit non-convergence signal. A guess of 0.1 works for typical series.
func IRR(cashFlows []float64, guess float64) float64 {
	rate := guess
	for i := 0; i < maxIterations; i++ {
		derivative := npvDerivative(cashFlows, rate)
		if derivative == 0 || math.IsNaN(derivative) || math.IsInf(derivative, 0) {
			return rate
		}

		next := rate - NPV(cashFlows, rate)/derivative
		if math.Abs(next-rate) < rateTolerance {
			return next
		}
		rate = next
	}
	return rate
}

// ROI is (returns − invested) / invested × 100, defined as 0 when nothing
// was invested.
func ROI(returns, invested decimal.Decimal) decimal.Decimal {
	if invested.IsZero() {
		return decimal.Zero
	}
	return returns.Sub(invested).Div(invested).Mul(decimal.NewFromInt(100))
}
