package audit

import (
	"context"
	"time"

	id "examreg/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive retention and routing downstream of the outbox.
type EventCategory string

const (
	// CategoryCompliance covers events with institutional record-keeping
	// significance, such as a confirmed exam registration.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access violations and authentication failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	StudentID id.StudentID
	ExamID    string
	Subject   string
	Action    string
	Decision  string
	Reason    string
	Email     string
	RequestID string
}

type AuditEvent string

const (
	// Registration events
	EventExamRegistered       AuditEvent = "exam_registered"
	EventRegistrationRejected AuditEvent = "registration_rejected"

	// Confirmation mail events
	EventConfirmationSent   AuditEvent = "confirmation_sent"
	EventConfirmationFailed AuditEvent = "confirmation_failed"
	EventConfirmationResent AuditEvent = "confirmation_resent"

	// Access events
	EventAccessDenied AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventExamRegistered:     CategoryCompliance,
	EventConfirmationResent: CategoryCompliance,

	EventAccessDenied: CategorySecurity,

	EventRegistrationRejected: CategoryOperations,
	EventConfirmationSent:     CategoryOperations,
	EventConfirmationFailed:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]Event, error)
}
