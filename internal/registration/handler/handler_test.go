package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	jwttoken "examreg/internal/jwt_token"
	"examreg/internal/registration/handler/mocks"
	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/testutil"
)

// =============================================================================
// Registration Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler owns request parsing, the
// authenticated student boundary and the mapping of outcomes to the response
// envelope. The service is mocked.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	jwt     *jwttoken.JWTService
	router  chi.Router
	student id.StudentID
	token   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.jwt = jwttoken.NewJWTService("test-signing-key-0123456789abcdef", "examreg", "examreg-students")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, logger, jwttoken.NewValidator(s.jwt)).Register(s.router)

	s.student = id.StudentID(uuid.New())
	token, err := s.jwt.GenerateAccessToken(s.student, jwttoken.RoleStudent, time.Hour)
	s.Require().NoError(err)
	s.token = token
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithBearer(req, s.token))
}

func (s *HandlerSuite) registerRequest(body any) *http.Request {
	return testutil.NewJSONRequest(s.T(), http.MethodPost, "/user/exams/register", body)
}

// =============================================================================
// POST /user/exams/register
// =============================================================================

func (s *HandlerSuite) TestRegisterSuccess() {
	examID := id.ExamID(uuid.New())
	ticket := &models.HallTicket{
		ID:  id.HallTicketID(uuid.New()),
		Ref: "HT-ABCDEF12-12345678-20261019",
		URL: "/hall-tickets/x",
	}
	s.service.EXPECT().
		RegisterForExam(gomock.Any(), s.student, examID, decimal.RequireFromString("50")).
		Return(&models.RegistrationResult{Ticket: ticket}, nil)

	resp := s.do(s.registerRequest(map[string]any{"examId": examID.String(), "amount": 50.00}))

	s.Equal(http.StatusCreated, resp.Code)
	s.Contains(resp.Body.String(), `"success":true`)
	s.Contains(resp.Body.String(), `"code":"OK"`)
	s.Contains(resp.Body.String(), `"ticketRef":"HT-ABCDEF12-12345678-20261019"`)
}

func (s *HandlerSuite) TestRegisterAcceptsDecimalString() {
	examID := id.ExamID(uuid.New())
	s.service.EXPECT().
		RegisterForExam(gomock.Any(), s.student, examID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.StudentID, _ id.ExamID, amount decimal.Decimal) (*models.RegistrationResult, error) {
			s.True(amount.Equal(decimal.RequireFromString("49.99")))
			return &models.RegistrationResult{Ticket: &models.HallTicket{Ref: "HT-1"}}, nil
		})

	resp := s.do(s.registerRequest(map[string]any{"examId": examID.String(), "amount": "49.99"}))
	s.Equal(http.StatusCreated, resp.Code)
}

func (s *HandlerSuite) TestRegisterOutcomes() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"exam not open", dErrors.New(dErrors.CodeExamNotOpen, "exam is not open for registration"), http.StatusConflict, "EXAM_NOT_OPEN"},
		{"amount mismatch", dErrors.New(dErrors.CodeAmountMismatch, "amount does not match"), http.StatusUnprocessableEntity, "AMOUNT_MISMATCH"},
		{"insufficient attendance", dErrors.New(dErrors.CodeInsufficientAttendance, "attendance 74.0% is below the required 75.0%"), http.StatusForbidden, "INSUFFICIENT_ATTENDANCE"},
		{"already registered", dErrors.New(dErrors.CodeAlreadyRegistered, "already registered for this exam"), http.StatusConflict, "ALREADY_REGISTERED"},
		{"timeout", dErrors.Wrap(context.DeadlineExceeded, dErrors.CodeTimeout, "transaction aborted"), http.StatusServiceUnavailable, "TRANSACTION_TIMEOUT"},
		{"storage unavailable", dErrors.Wrap(errors.New("dial tcp 10.1.2.3:5432"), dErrors.CodeUnavailable, "storage unavailable"), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().RegisterForExam(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			resp := s.do(s.registerRequest(map[string]any{"examId": uuid.NewString(), "amount": 50}))

			s.Equal(tc.status, resp.Code)
			s.Contains(resp.Body.String(), `"success":false`)
			s.Contains(resp.Body.String(), `"code":"`+tc.code+`"`)
			s.NotContains(resp.Body.String(), "10.1.2.3")
		})
	}
}

func (s *HandlerSuite) TestRegisterBadRequests() {
	cases := map[string]string{
		"malformed json":   `{"examId":`,
		"missing exam id":  `{"amount": 50}`,
		"invalid exam id":  `{"examId":"not-a-uuid","amount":50}`,
		"missing amount":   `{"examId":"` + uuid.NewString() + `"}`,
		"negative amount":  `{"examId":"` + uuid.NewString() + `","amount":-1}`,
		"non-numeric text": `{"examId":"` + uuid.NewString() + `","amount":"fifty"}`,
	}
	for name, body := range cases {
		s.Run(name, func() {
			req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/user/exams/register", body)
			resp := s.do(req)
			s.Equal(http.StatusBadRequest, resp.Code)
			s.Contains(resp.Body.String(), `"code":"BAD_REQUEST"`)
		})
	}
}

// =============================================================================
// Authentication boundary
// =============================================================================

func TestAuthBoundary(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	jwt := jwttoken.NewJWTService("test-signing-key-0123456789abcdef", "examreg", "examreg-students")
	router := chi.NewRouter()
	New(service, slog.New(slog.NewTextHandler(io.Discard, nil)), jwttoken.NewValidator(jwt)).Register(router)

	testutil.Given(t, "a request without a bearer token", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/user/exams/register", map[string]any{"examId": uuid.NewString(), "amount": 50})
		rr := testutil.DoRequest(router, req)

		testutil.Then(t, "it is rejected as unauthorized before reaching the service", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
		})
	})

	testutil.Given(t, "a token for another role", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken(id.StudentID(uuid.New()), "admin", time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/user/exams/available"), token)

		testutil.When(t, "listing available exams", func(t *testing.T) {
			rr := testutil.DoRequest(router, req)
			testutil.Then(t, "it is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "FORBIDDEN")
			})
		})
	})
}

// =============================================================================
// Read endpoints
// =============================================================================

func (s *HandlerSuite) TestAvailable() {
	exam := &models.Exam{
		ID:    id.ExamID(uuid.New()),
		Title: "Algorithms Final",
		Date:  time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		Fee:   decimal.RequireFromString("50"),
	}
	s.service.EXPECT().AvailableExams(gomock.Any(), s.student).
		Return([]models.AvailableExam{{Exam: exam, Attendance: 82, Eligible: true}}, nil)

	resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/exams/available"))

	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body.String(), `"title":"Algorithms Final"`)
	s.Contains(resp.Body.String(), `"date":"2026-11-02"`)
	s.Contains(resp.Body.String(), `"fee":"50.00"`)
	s.Contains(resp.Body.String(), `"eligible":true`)
}

func (s *HandlerSuite) TestRegisteredAndTimetableReturnEmptyLists() {
	s.service.EXPECT().RegisteredExams(gomock.Any(), s.student).Return(nil, nil)
	s.service.EXPECT().Timetable(gomock.Any(), s.student).Return(nil, nil)

	for _, path := range []string{"/user/exams/registered", "/user/timetable"} {
		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, path))
		s.Equal(http.StatusOK, resp.Code)
		s.Contains(resp.Body.String(), `"data":[]`)
	}
}

func (s *HandlerSuite) TestPaymentsFilter() {
	s.Run("status is parsed", func() {
		s.service.EXPECT().
			Payments(gomock.Any(), s.student, models.PaymentFilter{Statuses: []models.EntryStatus{models.StatusPaid}}).
			Return([]models.PaymentRecord{{ExamTitle: "Algorithms Final", Amount: decimal.RequireFromString("50"), Status: models.StatusPaid}}, nil)

		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/payments?status=paid"))
		s.Equal(http.StatusOK, resp.Code)
		s.Contains(resp.Body.String(), `"amount":"50.00"`)
	})

	s.Run("all means no filter", func() {
		s.service.EXPECT().Payments(gomock.Any(), s.student, models.PaymentFilter{}).Return(nil, nil)
		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/payments?status=all"))
		s.Equal(http.StatusOK, resp.Code)
	})

	s.Run("unknown status is rejected", func() {
		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/payments?status=refunded"))
		s.Equal(http.StatusBadRequest, resp.Code)
	})
}

func (s *HandlerSuite) TestHallTickets() {
	ticket := &models.HallTicket{
		ID:       id.HallTicketID(uuid.New()),
		Ref:      "HT-1",
		URL:      "/hall-tickets/1",
		IssuedAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	s.service.EXPECT().HallTickets(gomock.Any(), s.student).
		Return([]models.HallTicketView{{Ticket: ticket, StudentNumber: "2021CS001", Venue: "Block A"}}, nil)

	resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/hall-tickets"))
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body.String(), `"studentNumber":"2021CS001"`)
	s.Contains(resp.Body.String(), `"issuedAt":"2026-10-19T09:00:00Z"`)
}

func (s *HandlerSuite) TestAttendance() {
	course := &models.Course{ID: id.CourseID(uuid.New()), Code: "CS302", Name: "Networks"}
	s.service.EXPECT().Attendance(gomock.Any(), s.student).
		Return([]models.CourseAttendance{{Course: course, Percentage: 74, Required: 75, UpcomingExams: 1}}, nil)

	resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/attendance"))
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body.String(), `"courseName":"Networks"`)
	s.Contains(resp.Body.String(), `"attendancePercentage":74`)
	s.Contains(resp.Body.String(), `"minAttendance":75`)
	s.Contains(resp.Body.String(), `"eligible":false`)
}

func (s *HandlerSuite) TestAttendanceStorageFailure() {
	s.service.EXPECT().Attendance(gomock.Any(), s.student).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "storage unavailable"))

	resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/attendance"))
	s.Equal(http.StatusServiceUnavailable, resp.Code)
	s.Contains(resp.Body.String(), `"success":false`)
}

func (s *HandlerSuite) TestProfile() {
	s.Run("found", func() {
		s.service.EXPECT().Profile(gomock.Any(), s.student).Return(&models.Student{
			ID:            s.student,
			StudentNumber: "2021CS042",
			Name:          "Ravi Kumar",
			Email:         "ravi.kumar@example.edu",
		}, nil)

		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/profile"))
		s.Equal(http.StatusOK, resp.Code)
		s.Contains(resp.Body.String(), `"success":true`)
		s.Contains(resp.Body.String(), `"studentId":"2021CS042"`)
		s.Contains(resp.Body.String(), `"role":"student"`)
		s.Contains(resp.Body.String(), `"id":"`+s.student.String()+`"`)
	})

	s.Run("unknown student", func() {
		s.service.EXPECT().Profile(gomock.Any(), s.student).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "student not found"))

		resp := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/user/profile"))
		s.Equal(http.StatusNotFound, resp.Code)
	})

	s.Run("requires a token", func() {
		resp := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/user/profile"))
		s.Equal(http.StatusUnauthorized, resp.Code)
	})
}

func (s *HandlerSuite) TestResendConfirmation() {
	examID := id.ExamID(uuid.New())

	s.Run("sent", func() {
		s.service.EXPECT().ResendConfirmation(gomock.Any(), s.student, examID).Return(nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/user/payments/email", map[string]string{"examId": examID.String()})
		resp := s.do(req)
		s.Equal(http.StatusOK, resp.Code)
		s.Contains(resp.Body.String(), `"success":true`)
	})

	s.Run("no paid registration", func() {
		s.service.EXPECT().ResendConfirmation(gomock.Any(), s.student, examID).
			Return(dErrors.New(dErrors.CodeNotFound, "no paid registration found for this exam"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/user/payments/email", map[string]string{"examId": examID.String()})
		resp := s.do(req)
		s.Equal(http.StatusNotFound, resp.Code)
		s.Contains(resp.Body.String(), `"code":"NOT_FOUND"`)
	})
}
