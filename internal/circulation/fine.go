package circulation

import (
	"math"
	"time"
)

// DefaultFineRatePerDay is the fallback overdue rate. The upstream screens
// disagree on the policy (0.50/day uncapped vs 5/day capped at 100), so both
// rate and cap stay configurable and the active policy is logged at startup.
const DefaultFineRatePerDay = 0.50

// FineCalculator computes overdue penalties. MaxFine of 0 means uncapped.
type FineCalculator struct {
	RatePerDay float64
	MaxFine    float64
}

// NewFineCalculator builds a calculator, falling back to the default rate
// when ratePerDay is not positive.
func NewFineCalculator(ratePerDay, maxFine float64) FineCalculator {
	if ratePerDay <= 0 {
		ratePerDay = DefaultFineRatePerDay
	}
	return FineCalculator{RatePerDay: ratePerDay, MaxFine: maxFine}
}

// DaysOverdue returns max(0, ceil((now-due) / 24h)). A return one minute
// late counts as one full day.
func (f FineCalculator) DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(math.Ceil(now.Sub(due).Hours() / 24))
}

// Amount returns daysOverdue times the daily rate, capped at MaxFine when a
// cap is configured.
func (f FineCalculator) Amount(daysOverdue int) float64 {
	if daysOverdue <= 0 {
		return 0
	}
	amount := float64(daysOverdue) * f.RatePerDay
	if f.MaxFine > 0 && amount > f.MaxFine {
		amount = f.MaxFine
	}
	return amount
}
