package service

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/audit"
	"examreg/pkg/platform/sentinel"
)

// AvailableExams lists upcoming exams with the student's attendance and
// whether they may still register.
func (s *Service) AvailableExams(ctx context.Context, studentID id.StudentID) ([]models.AvailableExam, error) {
	var (
		exams      []*models.Exam
		attendance map[id.CourseID]float64
		entries    []*models.RegistrationEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		exams, err = s.catalog.ListUpcomingExams(gctx, s.now(ctx))
		return err
	})
	g.Go(func() error {
		var err error
		attendance, err = s.ledger.ListAttendance(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.ledger.ListRegistrations(gctx, studentID, models.PaymentFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}

	registered := make(map[id.ExamID]bool, len(entries))
	for _, e := range entries {
		registered[e.ExamID] = true
	}

	out := make([]models.AvailableExam, 0, len(exams))
	for _, exam := range exams {
		pct := attendance[exam.CourseID]
		out = append(out, models.AvailableExam{
			Exam:       exam,
			Attendance: pct,
			Registered: registered[exam.ID],
			Eligible:   meetsThreshold(pct, exam.MinAttendance) && !registered[exam.ID],
		})
	}
	return out, nil
}

// Attendance lists the student's attendance per course, ordered by course code.
func (s *Service) Attendance(ctx context.Context, studentID id.StudentID) ([]models.CourseAttendance, error) {
	var (
		attendance map[id.CourseID]float64
		exams      []*models.Exam
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendance, err = s.ledger.ListAttendance(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		exams, err = s.catalog.ListUpcomingExams(gctx, s.now(ctx))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}

	ids := make([]id.CourseID, 0, len(attendance))
	for courseID := range attendance {
		ids = append(ids, courseID)
	}
	courses, err := s.ledger.ListCoursesByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.CourseAttendance, 0, len(ids))
	for _, courseID := range ids {
		course, ok := courses[courseID]
		if !ok {
			course = &models.Course{ID: courseID}
		}
		view := models.CourseAttendance{Course: course, Percentage: attendance[courseID]}
		for _, exam := range exams {
			if exam.CourseID != courseID {
				continue
			}
			view.UpcomingExams++
			if exam.MinAttendance > view.Required {
				view.Required = exam.MinAttendance
			}
		}
		view.Eligible = meetsThreshold(view.Percentage, view.Required)
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Course.Code != out[j].Course.Code {
			return out[i].Course.Code < out[j].Course.Code
		}
		return out[i].Course.ID.String() < out[j].Course.ID.String()
	})
	return out, nil
}

// Profile returns the student's directory record.
func (s *Service) Profile(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	student, err := s.students.FindStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, translate(err)
	}
	return student, nil
}

// RegisteredExams lists every exam the student holds a ledger entry for,
// soonest first.
func (s *Service) RegisteredExams(ctx context.Context, studentID id.StudentID) ([]*models.Exam, error) {
	return s.examsFor(ctx, studentID, models.PaymentFilter{})
}

// Timetable lists the exams the student has paid for, soonest first.
func (s *Service) Timetable(ctx context.Context, studentID id.StudentID) ([]*models.Exam, error) {
	return s.examsFor(ctx, studentID, models.PaymentFilter{Statuses: []models.EntryStatus{models.StatusPaid}})
}

func (s *Service) examsFor(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]*models.Exam, error) {
	entries, err := s.ledger.ListRegistrations(ctx, studentID, filter)
	if err != nil {
		return nil, translate(err)
	}
	byID, err := s.ledger.ListExamsByIDs(ctx, examIDs(entries))
	if err != nil {
		return nil, translate(err)
	}

	out := make([]*models.Exam, 0, len(entries))
	for _, e := range entries {
		if exam, ok := byID[e.ExamID]; ok {
			out = append(out, exam)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// Payments lists ledger entries matching filter, newest first.
func (s *Service) Payments(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	entries, err := s.ledger.ListRegistrations(ctx, studentID, filter)
	if err != nil {
		return nil, translate(err)
	}
	byID, err := s.ledger.ListExamsByIDs(ctx, examIDs(entries))
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.PaymentRecord, 0, len(entries))
	for _, e := range entries {
		record := models.PaymentRecord{
			ID:     e.ID,
			ExamID: e.ExamID,
			Amount: e.Amount,
			Status: e.Status,
			Date:   e.RegisteredAt,
		}
		if exam, ok := byID[e.ExamID]; ok {
			record.ExamTitle = exam.Title
		}
		out = append(out, record)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// HallTickets lists the student's issued tickets with the exam details
// printed on them.
func (s *Service) HallTickets(ctx context.Context, studentID id.StudentID) ([]models.HallTicketView, error) {
	student, err := s.students.FindStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, translate(err)
	}
	tickets, err := s.ledger.ListHallTickets(ctx, studentID)
	if err != nil {
		return nil, translate(err)
	}
	ids := make([]id.ExamID, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ExamID)
	}
	byID, err := s.ledger.ListExamsByIDs(ctx, ids)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.HallTicketView, 0, len(tickets))
	for _, t := range tickets {
		view := models.HallTicketView{Ticket: t, StudentNumber: student.StudentNumber}
		if exam, ok := byID[t.ExamID]; ok {
			view.ExamTitle = exam.Title
			view.Date = exam.Date
			view.StartTime = exam.StartTime
			view.Venue = exam.Venue
		}
		out = append(out, view)
	}
	return out, nil
}

// ResendConfirmation sends the confirmation for an existing paid
// registration again. Unlike the post-commit send, its failure is returned.
func (s *Service) ResendConfirmation(ctx context.Context, studentID id.StudentID, examID id.ExamID) error {
	if s.notifier == nil {
		return dErrors.New(dErrors.CodeUnavailable, "email delivery is not configured")
	}
	entry, err := s.ledger.FindRegistration(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errNoPaidRegistration()
		}
		return translate(err)
	}
	if entry.Status != models.StatusPaid {
		return errNoPaidRegistration()
	}
	exam, err := s.catalog.FindExam(ctx, examID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errNoPaidRegistration()
		}
		return translate(err)
	}
	ticket, err := s.ledger.FindHallTicket(ctx, studentID, examID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return translate(err)
	}

	student, err := s.sendConfirmation(ctx, studentID, exam, entry, ticket, true)
	if err != nil {
		s.metrics.IncNotificationFailure()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to send confirmation email")
	}
	s.metrics.IncNotificationSent()
	s.logAudit(ctx, audit.EventConfirmationResent,
		"student_id", studentID,
		"exam_id", examID,
		"email", student.Email,
	)
	return nil
}

func errNoPaidRegistration() error {
	return dErrors.New(dErrors.CodeNotFound, "no paid registration found for this exam")
}

func examIDs(entries []*models.RegistrationEntry) []id.ExamID {
	ids := make([]id.ExamID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ExamID)
	}
	return ids
}
