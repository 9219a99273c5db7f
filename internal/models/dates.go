package models

import (
	"fmt"
	"sort"
	"time"
)

const DayLayout = "2006-01-02"

// DateRange is a stay. Both endpoints are occupied, so the checkout day is
// held as well.
type DateRange struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// NormalizeDay truncates t to midnight UTC of its UTC calendar day.
func NormalizeDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: NormalizeDay(start), End: NormalizeDay(end)}
	if start.IsZero() || end.IsZero() {
		return DateRange{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidRequest, r.End.Format(DayLayout), r.Start.Format(DayLayout))
	}
	return r, nil
}

// ParseDateRange accepts YYYY-MM-DD or RFC3339 values.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := parseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := parseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

func parseDay(v string) (time.Time, error) {
	if t, err := time.Parse(DayLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidRequest, v)
	}
	return t, nil
}

// Days enumerates every calendar day from Start to End, both included.
func (r DateRange) Days() []time.Time {
	start, end := NormalizeDay(r.Start), NormalizeDay(r.End)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Nights is the number of nights charged for the stay.
func (r DateRange) Nights() int {
	return int(NormalizeDay(r.End).Sub(NormalizeDay(r.Start)).Hours() / 24)
}

// DaySet normalizes and de-duplicates days, returning them sorted.
func DaySet(days []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(days))
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		n := NormalizeDay(d)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Intersect returns the days of want that are present in have.
func Intersect(have, want []time.Time) []time.Time {
	index := make(map[time.Time]struct{}, len(have))
	for _, d := range have {
		index[NormalizeDay(d)] = struct{}{}
	}
	var out []time.Time
	for _, d := range DaySet(want) {
		if _, ok := index[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
