package rules

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Period is a closed calendar interval [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// Ordered reports whether Start <= End.
func (p Period) Ordered() bool {
	return !p.End.Before(p.Start)
}

// Contains reports whether d falls within [Start, End], bounds included.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Overlaps uses strict comparison on both sides, so periods that only touch
// at a boundary do not overlap.
func (p Period) Overlaps(other Period) bool {
	return p.Start.Before(other.End) && other.Start.Before(p.End)
}

// ExceedsOneYear reports whether End falls after the same calendar day one
// year past Start.
func (p Period) ExceedsOneYear() bool {
	return p.End.After(p.Start.AddDate(1, 0, 0))
}

func (p Period) String() string {
	return "[" + p.Start.Format(DateLayout) + ", " + p.End.Format(DateLayout) + "]"
}

// Ordered reports whether start <= end.
func Ordered(start, end time.Time) bool {
	return Period{Start: start, End: end}.Ordered()
}

// Within reports whether start <= d <= end.
func Within(d, start, end time.Time) bool {
	return Period{Start: start, End: end}.Contains(d)
}

// Overlaps reports whether [startA, endA] and [startB, endB] share an instant
// beyond their boundaries.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return Period{Start: startA, End: endA}.Overlaps(Period{Start: startB, End: endB})
}

// ExceedsOneYear reports whether [start, end] spans more than one calendar year.
func ExceedsOneYear(start, end time.Time) bool {
	return Period{Start: start, End: end}.ExceedsOneYear()
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
