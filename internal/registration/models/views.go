package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "examreg/pkg/domain"
)

// AvailableExam is an upcoming exam annotated for one student.
type AvailableExam struct {
	Exam       *Exam
	Attendance float64
	Registered bool
	Eligible   bool
}

// CourseAttendance is one course's attendance for a student, measured against
// the strictest upcoming exam in that course. Required is zero when the course
// has no upcoming exam.
type CourseAttendance struct {
	Course        *Course
	Percentage    float64
	Required      float64
	UpcomingExams int
	Eligible      bool
}

// PaymentRecord is a ledger entry joined with its exam title.
type PaymentRecord struct {
	ID        id.RegistrationID
	ExamID    id.ExamID
	ExamTitle string
	Amount    decimal.Decimal
	Status    EntryStatus
	Date      time.Time
}

// HallTicketView is an issued ticket with the exam details printed on it.
type HallTicketView struct {
	Ticket        *HallTicket
	StudentNumber string
	ExamTitle     string
	Date          time.Time
	StartTime     string
	Venue         string
}

// PaymentFilter selects ledger entries by status. The zero value matches all.
type PaymentFilter struct {
	Statuses []EntryStatus
}

// Matches reports whether status passes the filter.
func (f PaymentFilter) Matches(status EntryStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}
