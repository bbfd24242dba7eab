package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Range is the half-open window [From, To) a report covers.
type Range struct {
	Period string    `json:"period"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// ParsePeriod resolves today, week, month, year or all relative to now in
// loc. Weeks start on Monday. An empty period means month.
func ParsePeriod(period string, now time.Time, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" {
		p = "month"
	}
	r := Range{Period: p, To: now}
	switch p {
	case "today":
		r.From = day
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		r.From = day.AddDate(0, 0, -offset)
	case "month":
		r.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	case "year":
		r.From = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case "all":
		r.From = time.Unix(0, 0).In(loc)
	default:
		return Range{}, fmt.Errorf("%w: period must be today, week, month, year or all", shared.ErrValidation)
	}
	return r, nil
}
