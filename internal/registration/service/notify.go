package service

import (
	"context"
	"fmt"
	"time"

	"examreg/internal/notification"
	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	"examreg/pkg/platform/audit"
)

// dispatchConfirmation sends the confirmation mail in the background. The
// send outlives the request but is bounded by notifyTimeout; its failure is
// logged and counted, never retried.
func (s *Service) dispatchConfirmation(ctx context.Context, studentID id.StudentID, result *models.RegistrationResult) {
	if s.notifier == nil {
		return
	}
	if !s.track() {
		s.logger.WarnContext(ctx, "confirmation skipped, service closing",
			"student_id", studentID.String(),
			"exam_id", result.Exam.ID.String(),
		)
		return
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		defer s.inflight.Done()
		sendCtx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()

		student, err := s.sendConfirmation(sendCtx, studentID, result.Exam, result.Entry, result.Ticket, false)
		if err != nil {
			s.metrics.IncNotificationFailure()
			s.logger.ErrorContext(sendCtx, "confirmation email failed",
				"student_id", studentID.String(),
				"exam_id", result.Exam.ID.String(),
				"error", err,
			)
			s.logAudit(sendCtx, audit.EventConfirmationFailed,
				"student_id", studentID,
				"exam_id", result.Exam.ID,
				"reason", err.Error(),
			)
			return
		}
		s.metrics.IncNotificationSent()
		s.logAudit(sendCtx, audit.EventConfirmationSent,
			"student_id", studentID,
			"exam_id", result.Exam.ID,
			"email", student.Email,
		)
	}()
}

// sendConfirmation renders and sends one confirmation. It returns the
// student the mail was addressed to.
func (s *Service) sendConfirmation(ctx context.Context, studentID id.StudentID, exam *models.Exam, entry *models.RegistrationEntry, ticket *models.HallTicket, resend bool) (*models.Student, error) {
	student, err := s.students.FindStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}

	confirmation := notification.Confirmation{
		Institution: s.institution,
		StudentName: student.Name,
		Email:       student.Email,
		ExamTitle:   exam.Title,
		Amount:      entry.Amount,
		Paid:        entry.Status == models.StatusPaid,
		Date:        entry.RegisteredAt,
		Resend:      resend,
	}
	if ticket != nil {
		confirmation.TicketRef = ticket.Ref
	}
	msg, err := notification.RenderConfirmation(confirmation)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.Send(ctx, student.Email, msg.Subject, msg.Body); err != nil {
		return nil, fmt.Errorf("send confirmation: %w", err)
	}
	return student, nil
}

func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.inflight.Add(1)
	return true
}

// Drain waits for in-flight confirmations, or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting post-commit work and waits up to timeout for what is
// already running.
func (s *Service) Close(timeout time.Duration) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Drain(ctx); err != nil {
		return fmt.Errorf("confirmations still in flight: %w", err)
	}
	return nil
}
