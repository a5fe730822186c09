package worktime

import (
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/teamtime/internal/teamleader"
)

const HoursPerDay = 8

var (
	secondsPerHour = decimal.NewFromInt(3600)
	hundred        = decimal.NewFromInt(100)
)

// Summary holds hour figures rounded to two decimals.
type Summary struct {
	TotalHours         decimal.Decimal
	BillableHours      decimal.Decimal
	NonBillableHours   decimal.Decimal
	TotalDays          int
	OvertimeHours      decimal.Decimal
	BillablePercentage decimal.Decimal
}

// Summarize totals durations, counts distinct attributed dates and derives
// overtime against eight hours per worked day. The billable percentage
// subtracts overtime from the billable seconds before dividing by the total.
// Entries without an attributed date do not count as worked days.
func Summarize(entries []teamleader.TimeEntry) Summary {
	var total, billable int64
	days := make(map[string]struct{})
	for _, e := range entries {
		total += e.Duration
		if e.Invoiceable {
			billable += e.Duration
		}
		if e.StartedOn != "" {
			days[e.StartedOn] = struct{}{}
		}
	}

	totalSeconds := decimal.NewFromInt(total)
	billableSeconds := decimal.NewFromInt(billable)
	totalHours := totalSeconds.Div(secondsPerHour)
	expected := decimal.NewFromInt(int64(len(days) * HoursPerDay))

	overtime := totalHours.Sub(expected)
	if overtime.IsNegative() {
		overtime = decimal.Zero
	}

	percentage := decimal.Zero
	if total != 0 {
		percentage = billableSeconds.Sub(overtime.Mul(secondsPerHour)).
			Div(totalSeconds).
			Mul(hundred)
	}

	return Summary{
		TotalHours:         totalHours.Round(2),
		BillableHours:      billableSeconds.Div(secondsPerHour).Round(2),
		NonBillableHours:   totalSeconds.Sub(billableSeconds).Div(secondsPerHour).Round(2),
		TotalDays:          len(days),
		OvertimeHours:      overtime.Round(2),
		BillablePercentage: percentage.Round(2),
	}
}
