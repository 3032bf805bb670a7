package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"examreg/internal/registration/metrics"
	"examreg/internal/registration/models"
	"examreg/pkg/attrs"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/audit"
	"examreg/pkg/platform/middleware/request"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// Store is the transaction-scoped view handed to a unit of work. Ledger and
// ticket rows are written only through it.
type Store interface {
	AttendanceReader
	FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error)
	CreateRegistration(ctx context.Context, entry *models.RegistrationEntry) error
	CreateHallTicket(ctx context.Context, ticket *models.HallTicket) error
}

// Catalog serves exam reads outside a unit of work, possibly from cache.
type Catalog interface {
	FindExam(ctx context.Context, examID id.ExamID) (*models.Exam, error)
	ListUpcomingExams(ctx context.Context, from time.Time) ([]*models.Exam, error)
}

// LedgerReader serves the student-facing read endpoints.
type LedgerReader interface {
	ListAttendance(ctx context.Context, studentID id.StudentID) (map[id.CourseID]float64, error)
	FindRegistration(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.RegistrationEntry, error)
	ListRegistrations(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]*models.RegistrationEntry, error)
	FindHallTicket(ctx context.Context, studentID id.StudentID, examID id.ExamID) (*models.HallTicket, error)
	ListHallTickets(ctx context.Context, studentID id.StudentID) ([]*models.HallTicket, error)
	ListExamsByIDs(ctx context.Context, examIDs []id.ExamID) (map[id.ExamID]*models.Exam, error)
	ListCoursesByIDs(ctx context.Context, courseIDs []id.CourseID) (map[id.CourseID]*models.Course, error)
}

type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error)
}

// Notifier delivers the confirmation email.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const defaultNotifyTimeout = 15 * time.Second

// Service coordinates exam registration and the student's read views.
type Service struct {
	tx       RegistrationStoreTx
	catalog  Catalog
	ledger   LedgerReader
	students StudentDirectory

	notifier       Notifier
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer

	notifyTimeout time.Duration
	institution   string
	now           func(context.Context) time.Time

	// tracks post-commit notifications
	inflight sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithNotifyTimeout bounds each post-commit confirmation send.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithInstitution sets the institution name printed in confirmation mail.
func WithInstitution(name string) Option {
	return func(s *Service) {
		s.institution = name
	}
}

// WithClock overrides the request clock. Defaults to requestcontext.Now.
func WithClock(now func(context.Context) time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(tx RegistrationStoreTx, catalog Catalog, ledger LedgerReader, students StudentDirectory, opts ...Option) *Service {
	s := &Service{
		tx:            tx,
		catalog:       catalog,
		ledger:        ledger,
		students:      students,
		notifyTimeout: defaultNotifyTimeout,
		institution:   "Exam Registration",
		now:           requestcontext.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("examreg/registration")
	}
	return s
}

// RegisterForExam checks the exam, the amount and the student's attendance,
// then records the ledger entry and issues the hall ticket in one unit of
// work. Confirmation mail and the audit event follow the commit and never
// affect the outcome.
func (s *Service) RegisterForExam(ctx context.Context, studentID id.StudentID, examID id.ExamID, amount decimal.Decimal) (*models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.RegisterForExam", trace.WithAttributes(
		attribute.String("student_id", studentID.String()),
		attribute.String("exam_id", examID.String()),
	))
	defer span.End()

	start := time.Now()
	var result *models.RegistrationResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context, st Store) error {
		exam, err := st.FindExam(ctx, examID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return errExamNotOpen()
			}
			return err
		}
		now := s.now(ctx)
		if !exam.IsOpen(now) {
			return errExamNotOpen()
		}
		if !exam.FeeMatches(amount) {
			return dErrors.New(dErrors.CodeAmountMismatch,
				fmt.Sprintf("amount %s does not match the exam fee %s", amount.StringFixed(2), exam.Fee.StringFixed(2)))
		}

		eligibility, err := NewEvaluator(st, s.now).Evaluate(ctx, studentID, exam)
		if err != nil {
			return err
		}
		if err := eligibility.Err(); err != nil {
			return err
		}

		entry := newEntry(studentID, exam, amount, now)
		if err := register(ctx, st, entry); err != nil {
			return err
		}
		ticket, err := issueHallTicket(ctx, st, entry)
		if err != nil {
			return err
		}
		result = &models.RegistrationResult{Entry: entry, Ticket: ticket, Exam: exam}
		return nil
	})
	s.metrics.ObserveTx(start)

	if err != nil {
		err = translate(err)
		code := OutcomeCode(err)
		s.metrics.IncOutcome(code)
		span.SetStatus(codes.Error, code)
		s.logAudit(ctx, audit.EventRegistrationRejected,
			"student_id", studentID,
			"exam_id", examID,
			"reason", code,
		)
		return nil, err
	}

	s.metrics.IncOutcome(OutcomeOK)
	span.SetAttributes(attribute.String("ticket_ref", result.Ticket.Ref))

	s.dispatchConfirmation(ctx, studentID, result)
	s.logAudit(ctx, audit.EventExamRegistered,
		"student_id", studentID,
		"exam_id", examID,
		"ticket_ref", result.Ticket.Ref,
		"status", string(result.Entry.Status),
	)
	return result, nil
}

// translate maps infrastructure failures to domain codes. Domain-coded errors
// pass through.
func translate(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "storage unavailable")
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := request.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	// The recipient address goes to the audit store only.
	args := append(attrs.Without(attributes, "email"), "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}

	studentID, _ := id.ParseStudentID(attrs.ExtractString(attributes, "student_id"))
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		StudentID: studentID,
		ExamID:    attrs.ExtractString(attributes, "exam_id"),
		Subject:   studentID.String(),
		Action:    string(event),
		Reason:    attrs.ExtractString(attributes, "reason"),
		Email:     attrs.ExtractString(attributes, "email"),
		RequestID: attrs.ExtractString(attributes, "request_id"),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
