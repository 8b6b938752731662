package core

import (
	"math"
	"time"
)

const (
	RangeThisMonth  RangeType = "this_month"
	RangeThisWeek   RangeType = "this_week"
	RangeLast30Days RangeType = "last_30_days"
	RangeCustom     RangeType = "custom"
)

type (
	RangeType string

	// Summary aggregates a record set over an inclusive date range.
	Summary struct {
		Start             Date    `json:"start_date"`
		End               Date    `json:"end_date"`
		DaysSpan          int     `json:"days_span"`
		TotalCard         Money   `json:"total_card"`
		TotalCash         Money   `json:"total_cash"`
		TotalAmount       Money   `json:"total_amount"`
		TotalCustomers    int     `json:"total_customers"`
		AvgDailyIncome    Money   `json:"avg_daily_income"`
		AvgDailyCustomers float64 `json:"avg_daily_customers"`
	}

	// GroupTotal is one bucket of a grouped breakdown.
	GroupTotal struct {
		Key     string `json:"key"`
		Count   int    `json:"count"`
		Revenue Money  `json:"revenue"`
	}

	// DayAmount is one point of a gap-filled daily revenue series.
	DayAmount struct {
		Date   Date  `json:"date"`
		Amount Money `json:"amount"`
	}
)

// Unassigned and UncategorizedService are the fallback bucket labels for
// records with no therapist reference or no service type.
const (
	Unassigned           = "unassigned"
	UncategorizedService = "other"
)

// DaysSpan returns the inclusive day count of [start, end], never less
// than 1, so callers can divide by it without guarding.
func DaysSpan(start, end Date) int {
	span := start.DaysUntil(end) + 1
	if span < 1 {
		return 1
	}
	return span
}

// Summarize computes totals and daily averages over records already fetched
// for [start, end]. It never mutates its input and divides by the floored
// span, so an empty set yields all-zero totals rather than an error.
func Summarize(records []Record, start, end Date) Summary {
	s := Summary{Start: start, End: end, DaysSpan: DaysSpan(start, end)}
	for _, r := range records {
		s.TotalCard.Cents += r.CardAmount.Cents
		s.TotalCash.Cents += r.CashAmount.Cents
		s.TotalAmount.Cents += r.TotalAmount.Cents
		s.TotalCustomers += r.CustomerCount
	}
	span := int64(s.DaysSpan)
	s.AvgDailyIncome = Money{Cents: divRoundHalfUp(s.TotalAmount.Cents, span)}
	s.AvgDailyCustomers = round2(float64(s.TotalCustomers) / float64(span))
	return s
}

// GroupBy buckets records by keyFn, summing count and total revenue per
// bucket. Buckets appear in first-occurrence order; callers wanting sorted
// output must sort themselves.
func GroupBy(records []Record, keyFn func(Record) string) []GroupTotal {
	index := make(map[string]int)
	var groups []GroupTotal
	for _, r := range records {
		key := keyFn(r)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, GroupTotal{Key: key})
		}
		groups[i].Count++
		groups[i].Revenue.Cents += r.TotalAmount.Cents
	}
	return groups
}

// TherapistKey groups by resolved therapist name, bucketing records without
// one under "unassigned" so they are never dropped.
func TherapistKey(r Record) string {
	if r.TherapistName == "" {
		return Unassigned
	}
	return r.TherapistName
}

// ServiceKey groups by service type, bucketing empty values under "other".
func ServiceKey(r Record) string {
	if r.ServiceType == "" {
		return UncategorizedService
	}
	return string(r.ServiceType)
}

// DailySeries emits one point per calendar day in [start, end] inclusive,
// zero-filled for days with no records. The result length always equals
// DaysSpan(start, end); gaps are never skipped.
func DailySeries(records []Record, start, end Date) []DayAmount {
	byDay := make(map[string]int64, len(records))
	for _, r := range records {
		byDay[r.Date.ISO()] += r.TotalAmount.Cents
	}
	span := DaysSpan(start, end)
	series := make([]DayAmount, span)
	for i := 0; i < span; i++ {
		d := start.AddDays(i)
		series[i] = DayAmount{Date: d, Amount: Money{Cents: byDay[d.ISO()]}}
	}
	return series
}

// ResolveRange maps a named preset to concrete inclusive bounds relative to
// today. Custom falls back to the default 30-day window unless both bounds
// are supplied; custom bounds are used verbatim.
func ResolveRange(rt RangeType, start, end, today Date) (Date, Date) {
	switch rt {
	case RangeThisMonth:
		return NewDate(today.Year(), int(today.Month()), 1), today
	case RangeThisWeek:
		// Week starts Monday.
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDays(-offset), today
	case RangeCustom:
		if !start.IsZero() && !end.IsZero() {
			return start, end
		}
	}
	return today.AddDays(-29), today
}

// MonthRange expands a YYYY-MM token to the full-month inclusive range.
func MonthRange(s string) (Date, Date, error) {
	t, err := time.ParseInLocation("2006-01", s, time.UTC)
	if err != nil {
		return Date{}, Date{}, ErrInvalidDate
	}
	first := NewDate(t.Year(), int(t.Month()), 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last, nil
}

// divRoundHalfUp divides cents by n with half-up rounding.
func divRoundHalfUp(cents, n int64) int64 {
	if n == 0 {
		return 0
	}
	return (cents*2 + n) / (n * 2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
