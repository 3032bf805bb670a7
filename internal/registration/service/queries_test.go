package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"examreg/internal/notification"
	"examreg/internal/registration/models"
	"examreg/internal/registration/service/mocks"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/audit"
)

// =============================================================================
// Student read views
// =============================================================================
// Justification for unit tests: the listing views join ledger rows with the
// catalog and derive eligibility; the resend path is the only place a mail
// failure is reported to the caller.

type QueriesSuite struct {
	suite.Suite
	fixture *catalogFixture
	mail    *notification.RecordingDispatcher
	service *Service
}

func TestQueriesSuite(t *testing.T) {
	suite.Run(t, new(QueriesSuite))
}

func (s *QueriesSuite) SetupTest() {
	s.fixture = newCatalogFixture()
	s.mail = &notification.RecordingDispatcher{}
	st := s.fixture.store
	s.service = New(NewInMemoryTx(st, time.Second), st, st, st,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.mail),
		WithClock(fixedClock),
		WithInstitution("Riverside University"),
	)

	ctx := context.Background()
	_, err := s.service.RegisterForExam(ctx, s.fixture.student, s.fixture.paidExam.ID, dec("50"))
	s.Require().NoError(err)
	_, err = s.service.RegisterForExam(ctx, s.fixture.student, s.fixture.freeExam.ID, dec("0"))
	s.Require().NoError(err)
	s.Require().NoError(s.service.Drain(ctx))
}

func (s *QueriesSuite) TestAvailableExams() {
	got, err := s.service.AvailableExams(context.Background(), s.fixture.student)
	s.Require().NoError(err)

	byTitle := map[string]models.AvailableExam{}
	for _, e := range got {
		byTitle[e.Exam.Title] = e
	}
	s.NotContains(byTitle, "Algorithms Quiz", "past exams are not listed")
	s.Contains(byTitle, "Algorithms Lab", "exams today are listed")

	s.True(byTitle["Algorithms Final"].Registered)
	s.False(byTitle["Algorithms Final"].Eligible, "registered exams are no longer eligible")
	s.False(byTitle["Networks Final"].Eligible)
	s.InDelta(74, byTitle["Networks Final"].Attendance, 0.001)
	s.True(byTitle["Ethics Final"].Eligible)
}

func (s *QueriesSuite) TestRegisteredExamsAndTimetable() {
	ctx := context.Background()

	registered, err := s.service.RegisteredExams(ctx, s.fixture.student)
	s.Require().NoError(err)
	s.Require().Len(registered, 2)
	s.Equal("Algorithms Final", registered[0].Title, "soonest first")

	timetable, err := s.service.Timetable(ctx, s.fixture.student)
	s.Require().NoError(err)
	s.Require().Len(timetable, 1)
	s.Equal(s.fixture.paidExam.ID, timetable[0].ID)
}

func (s *QueriesSuite) TestPayments() {
	ctx := context.Background()

	s.Run("all", func() {
		got, err := s.service.Payments(ctx, s.fixture.student, models.PaymentFilter{})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("free only", func() {
		got, err := s.service.Payments(ctx, s.fixture.student, models.PaymentFilter{
			Statuses: []models.EntryStatus{models.StatusFree},
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("Algorithms Viva", got[0].ExamTitle)
		s.True(got[0].Amount.IsZero())
	})
}

func (s *QueriesSuite) TestHallTickets() {
	got, err := s.service.HallTickets(context.Background(), s.fixture.student)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	for _, v := range got {
		s.Equal("2021CS042", v.StudentNumber)
		s.NotEmpty(v.ExamTitle)
		s.Equal("Block A", v.Venue)
		s.Contains(v.Ticket.Ref, "HT-")
	}
}

func (s *QueriesSuite) TestAttendance() {
	ctx := context.Background()
	f := s.fixture

	strict := f.putExam(f.ethicsExam.CourseID, "Ethics Practical", models.DateOf(fixedNow).AddDate(0, 0, 12), "0", false)
	strict.MinAttendance = 80
	f.store.PutExam(strict)

	archived := &models.Course{ID: id.CourseID(uuid.New()), Code: "MA101", Name: "Calculus"}
	f.store.PutCourse(archived)
	f.store.PutAttendance(models.AttendanceRecord{StudentID: f.student, CourseID: archived.ID, Percentage: 40})

	got, err := s.service.Attendance(ctx, f.student)
	s.Require().NoError(err)
	s.Require().Len(got, 4)

	codes := make([]string, 0, len(got))
	for _, a := range got {
		codes = append(codes, a.Course.Code)
	}
	s.Equal([]string{"CS301", "CS302", "HS101", "MA101"}, codes)

	s.Run("past exams are not counted", func() {
		s.Equal("Algorithms", got[0].Course.Name)
		s.Equal(3, got[0].UpcomingExams)
		s.True(got[0].Eligible)
	})

	s.Run("below the minimum", func() {
		s.InDelta(74, got[1].Percentage, 0.001)
		s.InDelta(75, got[1].Required, 0.001)
		s.False(got[1].Eligible)
	})

	s.Run("strictest upcoming exam sets the minimum", func() {
		s.InDelta(80, got[2].Required, 0.001)
		s.False(got[2].Eligible)
	})

	s.Run("no upcoming exam", func() {
		s.Zero(got[3].UpcomingExams)
		s.Zero(got[3].Required)
		s.True(got[3].Eligible)
	})
}

func (s *QueriesSuite) TestAttendanceForStudentWithoutRecords() {
	got, err := s.service.Attendance(context.Background(), id.StudentID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *QueriesSuite) TestProfile() {
	ctx := context.Background()

	student, err := s.service.Profile(ctx, s.fixture.student)
	s.Require().NoError(err)
	s.Equal("2021CS042", student.StudentNumber)
	s.Equal("ravi.kumar@example.edu", student.Email)

	_, err = s.service.Profile(ctx, id.StudentID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *QueriesSuite) TestResendConfirmation() {
	ctx := context.Background()
	before := len(s.mail.Sent())

	s.Run("paid registration is resent", func() {
		s.Require().NoError(s.service.ResendConfirmation(ctx, s.fixture.student, s.fixture.paidExam.ID))
		sent := s.mail.Sent()
		s.Require().Len(sent, before+1)
		s.Equal("ravi.kumar@example.edu", sent[len(sent)-1].To)
		s.Contains(sent[len(sent)-1].Body, "payment")
	})

	s.Run("free registration is not found", func() {
		err := s.service.ResendConfirmation(ctx, s.fixture.student, s.fixture.freeExam.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing registration is not found", func() {
		err := s.service.ResendConfirmation(ctx, s.fixture.student, s.fixture.ethicsExam.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delivery failure is reported", func() {
		s.mail.Err = errors.New("relay down")
		defer func() { s.mail.Err = nil }()
		err := s.service.ResendConfirmation(ctx, s.fixture.student, s.fixture.paidExam.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestResendAuditKeepsAddressOutOfLogs(t *testing.T) {
	fixture := newCatalogFixture()
	st := fixture.store
	var logs bytes.Buffer
	ctrl := gomock.NewController(t)
	auditPub := mocks.NewMockAuditPublisher(ctrl)

	svc := New(NewInMemoryTx(st, time.Second), st, st, st,
		WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))),
		WithNotifier(&notification.RecordingDispatcher{}),
		WithAuditPublisher(auditPub),
		WithClock(fixedClock),
	)

	var events []audit.Event
	auditPub.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		events = append(events, e)
		return nil
	}).AnyTimes()

	ctx := context.Background()
	_, err := svc.RegisterForExam(ctx, fixture.student, fixture.paidExam.ID, dec("50"))
	require.NoError(t, err)
	require.NoError(t, svc.Drain(ctx))
	require.NoError(t, svc.ResendConfirmation(ctx, fixture.student, fixture.paidExam.ID))

	var resent *audit.Event
	for i := range events {
		if events[i].Action == string(audit.EventConfirmationResent) {
			resent = &events[i]
		}
	}
	require.NotNil(t, resent)
	assert.Equal(t, "ravi.kumar@example.edu", resent.Email)
	assert.NotContains(t, logs.String(), "ravi.kumar@example.edu")
}
