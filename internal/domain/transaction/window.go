package transaction

import "time"

// Window is the (year, month) aggregation window, evaluated in UTC.
// No range check is done: a month outside 1..12 simply matches nothing.
type Window struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == w.Year && int(t.Month()) == w.Month
}

// Matches is the full scoping predicate used by reports: owner and window.
func (w Window) Matches(ownerID int64, t Transaction) bool {
	return t.UserID == ownerID && w.Contains(t.Date)
}
