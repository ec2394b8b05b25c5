package tui

import (
	"time"

	"deadlock-tracker/internal/domain"
)

type preset struct {
	Label string
	Days  int
}

// presets cycle in order; the first is unbounded.
var presets = []preset{
	{Label: "all time"},
	{Label: "last 7 days", Days: 7},
	{Label: "last 30 days", Days: 30},
}

// Range resolves the preset against now. Bounds are truncated to the hour so
// repeated selections within the hour compare equal.
func (p preset) Range(now time.Time) domain.DateRange {
	if p.Days == 0 {
		return domain.DateRange{}
	}
	from := now.UTC().Truncate(time.Hour).AddDate(0, 0, -p.Days)
	return domain.NewDateRange(&from, nil)
}
