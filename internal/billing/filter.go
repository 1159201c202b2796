package billing

import (
	"strings"
	"time"

	"github.com/aarogya/billing-backend/internal/domain/entities"
)

// Query filters a bill collection before aggregation. The date range is
// inclusive on both ends: [From 00:00:00.000, To 23:59:59.999].
type Query struct {
	From    *time.Time
	To      *time.Time
	Status  entities.BillStatus
	Remarks string
}

// DayStart truncates t to midnight in its location
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd returns 23:59:59.999 of t's day. A bill dated one millisecond later
// falls outside the range.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Filter returns the bills matching q, preserving input order
func Filter(bills []*entities.Bill, q Query) []*entities.Bill {
	var from, to time.Time
	if q.From != nil {
		from = DayStart(*q.From)
	}
	if q.To != nil {
		to = DayEnd(*q.To)
	}

	remarks := strings.ToLower(strings.TrimSpace(q.Remarks))

	matched := make([]*entities.Bill, 0, len(bills))
	for _, bill := range bills {
		if q.From != nil && bill.Date.Before(from) {
			continue
		}
		if q.To != nil && bill.Date.After(to) {
			continue
		}
		if q.Status != "" && bill.Status != q.Status {
			continue
		}
		if remarks != "" && !strings.Contains(strings.ToLower(bill.Remarks), remarks) {
			continue
		}
		matched = append(matched, bill)
	}
	return matched
}
