package circulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFineCalculator_DaysOverdue(t *testing.T) {
	due := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{name: "returned early", now: due.Add(-48 * time.Hour), expected: 0},
		{name: "returned exactly on time", now: due, expected: 0},
		{name: "one minute late rounds up to a day", now: due.Add(time.Minute), expected: 1},
		{name: "exactly one day late", now: due.Add(24 * time.Hour), expected: 1},
		{name: "six days late", now: due.Add(6 * 24 * time.Hour), expected: 6},
		{name: "six days and change rounds up", now: due.Add(6*24*time.Hour + time.Hour), expected: 7},
	}

	calc := NewFineCalculator(0.50, 0)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, calc.DaysOverdue(due, tc.now))
		})
	}
}

func TestFineCalculator_Amount(t *testing.T) {
	testCases := []struct {
		name     string
		rate     float64
		cap      float64
		days     int
		expected float64
	}{
		{name: "not overdue", rate: 0.50, days: 0, expected: 0},
		{name: "flat rate uncapped", rate: 0.50, days: 6, expected: 3.0},
		{name: "high rate below cap", rate: 5, cap: 100, days: 6, expected: 30},
		{name: "cap kicks in", rate: 5, cap: 100, days: 30, expected: 100},
		{name: "zero cap means uncapped", rate: 5, cap: 0, days: 30, expected: 150},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calc := NewFineCalculator(tc.rate, tc.cap)
			assert.InDelta(t, tc.expected, calc.Amount(tc.days), 1e-9)
		})
	}
}

func TestNewFineCalculator_DefaultRate(t *testing.T) {
	calc := NewFineCalculator(0, 0)
	assert.Equal(t, DefaultFineRatePerDay, calc.RatePerDay)
}
