package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "examreg/pkg/domain"
)

// Student is owned by the identity subsystem and read-only here.
type Student struct {
	ID            id.StudentID
	StudentNumber string
	Name          string
	Email         string
}

// Course groups exams and carries attendance.
type Course struct {
	ID   id.CourseID
	Code string
	Name string
}

// Exam is read-only input to registration. Date is normalised to UTC midnight.
type Exam struct {
	ID              id.ExamID
	CourseID        id.CourseID
	CourseName      string
	Title           string
	Type            string
	Date            time.Time
	StartTime       string
	Venue           string
	Fee             decimal.Decimal
	RequiresPayment bool
	MinAttendance   float64
}

// IsOpen reports whether the exam still accepts registrations at now. The
// comparison is by calendar date in UTC: an exam scheduled today is open.
func (e *Exam) IsOpen(now time.Time) bool {
	return !DateOf(e.Date).Before(DateOf(now))
}

// FeeMatches compares amount with the fee exactly, independent of scale.
func (e *Exam) FeeMatches(amount decimal.Decimal) bool {
	return e.Fee.Equal(amount)
}

// EntryStatus is the payment state recorded on a ledger entry.
type EntryStatus string

const (
	StatusPaid EntryStatus = "paid"
	StatusFree EntryStatus = "free"
)

// ParseEntryStatus accepts "paid" and "free".
func ParseEntryStatus(s string) (EntryStatus, bool) {
	switch EntryStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPaid:
		return StatusPaid, true
	case StatusFree:
		return StatusFree, true
	}
	return "", false
}

// StatusFor derives the ledger status from the exam's payment requirement.
func StatusFor(exam *Exam) EntryStatus {
	if exam.RequiresPayment {
		return StatusPaid
	}
	return StatusFree
}

// AttendanceRecord is the attendance of one student in one course.
type AttendanceRecord struct {
	StudentID  id.StudentID
	CourseID   id.CourseID
	Percentage float64
}

// RegistrationEntry is the ledger row for one (student, exam) pair.
type RegistrationEntry struct {
	ID           id.RegistrationID
	StudentID    id.StudentID
	ExamID       id.ExamID
	Amount       decimal.Decimal
	Status       EntryStatus
	RegisteredAt time.Time
}

// HallTicket is proof of registration for one (student, exam) pair.
type HallTicket struct {
	ID        id.HallTicketID
	StudentID id.StudentID
	ExamID    id.ExamID
	Ref       string
	URL       string
	IssuedAt  time.Time
}

// TicketRef renders the human-readable hall ticket reference,
// HT-<exam short>-<student short>-<yyyymmdd>.
func TicketRef(examID id.ExamID, studentID id.StudentID, issuedAt time.Time) string {
	return fmt.Sprintf("HT-%s-%s-%s",
		shortID(examID.String()),
		shortID(studentID.String()),
		issuedAt.UTC().Format("20060102"),
	)
}

// TicketURL is the path where the ticket document is served.
func TicketURL(ticketID id.HallTicketID) string {
	return "/hall-tickets/" + ticketID.String()
}

func shortID(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) > 8 {
		s = s[:8]
	}
	return strings.ToUpper(s)
}

// RegistrationResult is returned for a committed registration.
type RegistrationResult struct {
	Entry  *RegistrationEntry
	Ticket *HallTicket
	Exam   *Exam
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
