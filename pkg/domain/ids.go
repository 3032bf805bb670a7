package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "examreg/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so a StudentID can never be passed
// where an ExamID is expected.
//
// Usage: construct via the Parse* functions at trust boundaries; direct
// conversion from uuid.UUID is reserved for stores and tests.
type (
	StudentID      uuid.UUID
	ExamID         uuid.UUID
	CourseID       uuid.UUID
	RegistrationID uuid.UUID
	HallTicketID   uuid.UUID
)

func (id StudentID) String() string      { return uuid.UUID(id).String() }
func (id ExamID) String() string         { return uuid.UUID(id).String() }
func (id CourseID) String() string       { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id HallTicketID) String() string   { return uuid.UUID(id).String() }

func (id StudentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ExamID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CourseID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseStudentID parses a non-nil student identifier.
func ParseStudentID(s string) (StudentID, error) {
	u, err := parseUUID(s, "student ID")
	return StudentID(u), err
}

// ParseExamID parses a non-nil exam identifier.
func ParseExamID(s string) (ExamID, error) {
	u, err := parseUUID(s, "exam ID")
	return ExamID(u), err
}

// ParseCourseID parses a non-nil course identifier.
func ParseCourseID(s string) (CourseID, error) {
	u, err := parseUUID(s, "course ID")
	return CourseID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
