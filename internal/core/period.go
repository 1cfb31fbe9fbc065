package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

type (
	// Granularity selects the calendar bucket for trend rollups.
	Granularity string

	// TimeWindow is an inclusive date range. The end boundary is widened so
	// the window covers the entirety of the final day; a same-day window is
	// therefore non-empty.
	TimeWindow struct {
		Start time.Time
		End   time.Time
	}

	// CategoryTotal is one row of a category analysis.
	CategoryTotal struct {
		Category string
		Total    Money
	}

	// PeriodTotal is one trend bucket: the bucket start and the sum of
	// amounts whose expense date falls in that bucket.
	PeriodTotal struct {
		Period Date
		Total  Money
	}
)

// ParseGranularity maps a trend type string to a granularity. Anything that
// is not weekly, monthly or quarterly falls back to yearly; an unknown trend
// type is not an error.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case Weekly, Monthly, Quarterly:
		return Granularity(s)
	default:
		return Yearly
	}
}

// NewTimeWindow builds an inclusive window from two calendar days, widening
// the end by 23h59m to reach the last minute of the final day.
func NewTimeWindow(start, end Date) TimeWindow {
	return TimeWindow{
		Start: start.Time,
		End:   end.Time.Add(23*time.Hour + 59*time.Minute),
	}
}

// Contains reports whether the day falls inside the window.
func (w TimeWindow) Contains(d Date) bool {
	return !d.Time.Before(w.Start) && !d.Time.After(w.End)
}

// BucketStart truncates a date to the start of its calendar bucket: the ISO
// week's Monday, the first of the month, the first month of the quarter, or
// January 1st.
func BucketStart(d Date, g Granularity) Date {
	switch g {
	case Weekly:
		// Back up to Monday; Go weeks start on Sunday.
		offset := (int(d.Weekday()) + 6) % 7
		monday := d.AddDate(0, 0, -offset)
		return NewDate(monday.Year(), int(monday.Month()), monday.Day())
	case Monthly:
		return NewDate(d.Year(), int(d.Month()), 1)
	case Quarterly:
		quarterMonth := ((int(d.Month())-1)/3)*3 + 1
		return NewDate(d.Year(), quarterMonth, 1)
	default:
		return NewDate(d.Year(), 1, 1)
	}
}

// BucketLabel formats a bucket start for display. Each granularity has its
// own format: ISO week, abbreviated month and year, quarter of year, or the
// bare year.
func BucketLabel(bucket Date, g Granularity) string {
	switch g {
	case Weekly:
		year, week := bucket.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return bucket.Format("Jan 2006")
	case Quarterly:
		quarter := (int(bucket.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", bucket.Year(), quarter)
	default:
		return bucket.Format("2006")
	}
}

// AggregateByPeriod rolls expenses up into calendar buckets, ascending by
// bucket start. Both store backends share this so the week/quarter arithmetic
// lives in one place.
func AggregateByPeriod(expenses []Expense, g Granularity) []PeriodTotal {
	sums := make(map[Date]int64)
	for _, e := range expenses {
		sums[BucketStart(e.Date, g)] += e.Amount.Cents
	}
	out := make([]PeriodTotal, 0, len(sums))
	for period, cents := range sums {
		out = append(out, PeriodTotal{Period: period, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}

// AggregateByCategory sums expenses per category, ordered alphabetically.
func AggregateByCategory(expenses []Expense) []CategoryTotal {
	sums := make(map[string]int64)
	for _, e := range expenses {
		sums[e.Category] += e.Amount.Cents
	}
	out := make([]CategoryTotal, 0, len(sums))
	for category, cents := range sums {
		out = append(out, CategoryTotal{Category: category, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
