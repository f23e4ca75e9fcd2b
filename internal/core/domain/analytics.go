package domain

import (
	"time"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
)

const (
	MinAnalyticsDays     = 1
	MaxAnalyticsDays     = 90
	DefaultAnalyticsDays = 7

	dateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

// DailyStatusCount is one (day, status) bucket as reported by a backend.
// Day is a UTC midnight.
type DailyStatusCount struct {
	Day    time.Time
	Status TicketStatus
	Count  int64
}

// StatusPoint is one day of a status series.
type StatusPoint struct {
	Date     string
	Statuses map[TicketStatus]int64
}

// StatusSeries is a zero-filled, ascending, per-day status count window
// of consecutive UTC days ending today.
type StatusSeries struct {
	start  time.Time
	days   int
	counts []map[TicketStatus]int64
}

// ValidateWindow checks the requested number of days.
func ValidateWindow(days int) error {
	if days < MinAnalyticsDays || days > MaxAnalyticsDays {
		return apperrors.ErrInvalidWindow
	}
	return nil
}

// UTCDay truncates t to midnight of its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewStatusSeries creates an empty window of the given number of days
// whose last day contains now.
func NewStatusSeries(days int, now time.Time) (*StatusSeries, error) {
	if err := ValidateWindow(days); err != nil {
		return nil, err
	}

	today := UTCDay(now)
	s := &StatusSeries{
		start:  today.AddDate(0, 0, -(days - 1)),
		days:   days,
		counts: make([]map[TicketStatus]int64, days),
	}
	for i := range s.counts {
		bucket := make(map[TicketStatus]int64, len(TicketStatuses))
		for _, status := range TicketStatuses {
			bucket[status] = 0
		}
		s.counts[i] = bucket
	}
	return s, nil
}

// Window returns the half-open interval [from, to) covered by the series.
func (s *StatusSeries) Window() (from, to time.Time) {
	return s.start, s.start.AddDate(0, 0, s.days)
}

// Days returns the number of days in the series.
func (s *StatusSeries) Days() int {
	return s.days
}

// Add counts n tickets created at the given instant. Instants outside the
// window are ignored; non-canonical statuses count as open.
func (s *StatusSeries) Add(createdAt time.Time, status TicketStatus, n int64) {
	if n <= 0 {
		return
	}
	idx := s.index(createdAt)
	if idx < 0 {
		return
	}
	s.counts[idx][NormalizeStatus(string(status))] += n
}

// AddCounts folds backend rows into the series.
func (s *StatusSeries) AddCounts(rows []DailyStatusCount) {
	for _, row := range rows {
		s.Add(row.Day, row.Status, row.Count)
	}
}

func (s *StatusSeries) index(t time.Time) int {
	d := UTCDay(t)
	if d.Before(s.start) {
		return -1
	}
	idx := int(d.Sub(s.start) / day)
	if idx >= s.days {
		return -1
	}
	return idx
}

// Points returns the series in ascending date order.
func (s *StatusSeries) Points() []StatusPoint {
	points := make([]StatusPoint, s.days)
	for i := range s.counts {
		statuses := make(map[TicketStatus]int64, len(s.counts[i]))
		for k, v := range s.counts[i] {
			statuses[k] = v
		}
		points[i] = StatusPoint{
			Date:     s.start.AddDate(0, 0, i).Format(dateLayout),
			Statuses: statuses,
		}
	}
	return points
}

// Total returns the sum of all counts in the window.
func (s *StatusSeries) Total() int64 {
	var total int64
	for _, bucket := range s.counts {
		for _, v := range bucket {
			total += v
		}
	}
	return total
}

// TicketCreation is the minimal view of a ticket needed for in-memory
// accumulation by stores without server-side grouping.
type TicketCreation struct {
	CreatedAt time.Time
	Status    string
}

// AccumulateDailyStatusCounts groups tickets by UTC creation day and
// normalised status, yielding the same rows a GROUP BY would.
func AccumulateDailyStatusCounts(tickets []TicketCreation) []DailyStatusCount {
	type key struct {
		day    time.Time
		status TicketStatus
	}

	order := make([]key, 0)
	counts := make(map[key]int64)
	for _, t := range tickets {
		k := key{day: UTCDay(t.CreatedAt), status: NormalizeStatus(t.Status)}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}

	rows := make([]DailyStatusCount, 0, len(order))
	for _, k := range order {
		rows = append(rows, DailyStatusCount{Day: k.day, Status: k.status, Count: counts[k]})
	}
	return rows
}
