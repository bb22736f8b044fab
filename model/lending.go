// model/lending.go
package model

import "time"

type LendingStatus string

const (
	LendingRequesting LendingStatus = "REQUESTING"
	LendingApproved   LendingStatus = "APPROVED"
	LendingBorrowed   LendingStatus = "BORROWED"
	LendingOverdue    LendingStatus = "OVERDUE"
	LendingReturned   LendingStatus = "RETURNED"
)

// Active reports whether the book copy is still out with the borrower.
func (s LendingStatus) Active() bool {
	return s == LendingBorrowed || s == LendingOverdue
}

type Lending struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	BookID      int64         `json:"book_id"`
	Status      LendingStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	ReturnedAt  *time.Time    `json:"returned_at,omitempty"`
	OverdueFee  float64       `json:"overdue_fee"`
	Notified    bool          `json:"notified"`
}
