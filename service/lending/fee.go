package lending

import "time"

// LoanPeriod is how long a borrower keeps a book once it is handed over.
const LoanPeriod = 7 * 24 * time.Hour

const day = 24 * time.Hour

// ComputeFee returns the late fee owed at `now` for a loan due at `dueDate`.
//
// The fee escalates by complete overdue weeks: the first week charges 1.0
// per day, and every further complete week raises the daily rate by 0.5.
// With n complete weeks and m leftover days that closes to
//
//	fee = 3.5 * ((n+1)(n+2)/2 - 1) + 0.5 * m * (n+2)
//
// A missing due date or a loan that is not yet past due costs nothing.
// Day counts are integer-truncated so repeated calls within the same day
// always agree.
func ComputeFee(dueDate *time.Time, now time.Time) float64 {
	if dueDate == nil || dueDate.IsZero() {
		return 0
	}
	days := int64(now.Sub(*dueDate) / day)
	if days <= 0 {
		return 0
	}
	n := days / 7
	m := days % 7
	return 3.5*float64((n+1)*(n+2)/2-1) + 0.5*float64(m*(n+2))
}
