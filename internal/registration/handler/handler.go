package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	jwttoken "examreg/internal/jwt_token"
	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/httputil"
	"examreg/pkg/platform/middleware/auth"
	"examreg/pkg/platform/middleware/request"
	"examreg/pkg/requestcontext"
)

// Service defines the registration operations exposed over HTTP.
type Service interface {
	RegisterForExam(ctx context.Context, studentID id.StudentID, examID id.ExamID, amount decimal.Decimal) (*models.RegistrationResult, error)
	AvailableExams(ctx context.Context, studentID id.StudentID) ([]models.AvailableExam, error)
	Attendance(ctx context.Context, studentID id.StudentID) ([]models.CourseAttendance, error)
	Profile(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	RegisteredExams(ctx context.Context, studentID id.StudentID) ([]*models.Exam, error)
	Timetable(ctx context.Context, studentID id.StudentID) ([]*models.Exam, error)
	Payments(ctx context.Context, studentID id.StudentID, filter models.PaymentFilter) ([]models.PaymentRecord, error)
	HallTickets(ctx context.Context, studentID id.StudentID) ([]models.HallTicketView, error)
	ResendConfirmation(ctx context.Context, studentID id.StudentID, examID id.ExamID) error
}

// Handler serves the student registration endpoints.
type Handler struct {
	logger       *slog.Logger
	registration Service
	jwtValidator auth.JWTValidator
}

// New creates a new registration Handler.
func New(registration Service, logger *slog.Logger, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		registration: registration,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the student routes on r. Every route requires a student token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Use(auth.RequireRole(h.jwtValidator, jwttoken.RoleStudent, h.logger))

		r.Post("/exams/register", h.handleRegister)
		r.Get("/exams/available", h.handleAvailable)
		r.Get("/exams/registered", h.handleRegistered)
		r.Get("/payments", h.handlePayments)
		r.Post("/payments/email", h.handleResendConfirmation)
		r.Get("/hall-tickets", h.handleHallTickets)
		r.Get("/timetable", h.handleTimetable)
		r.Get("/attendance", h.handleAttendance)
		r.Get("/profile", h.handleProfile)
	})
}

// handleRegister registers the authenticated student for an exam.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	studentID := requestcontext.StudentID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.registration.RegisterForExam(ctx, studentID, req.examID, *req.Amount)
	if err != nil {
		h.logFailure(ctx, "exam registration failed", err,
			"request_id", requestID,
			"student_id", studentID.String(),
			"exam_id", req.examID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "exam registered",
		"request_id", requestID,
		"student_id", studentID.String(),
		"exam_id", req.examID.String(),
		"ticket_ref", result.Ticket.Ref,
	)
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Success:   true,
		Code:      "OK",
		Message:   "Registration successful",
		TicketRef: result.Ticket.Ref,
		TicketURL: result.Ticket.URL,
	})
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exams, err := h.registration.AvailableExams(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to list available exams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toAvailableResponses(exams)))
}

func (h *Handler) handleRegistered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exams, err := h.registration.RegisteredExams(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to list registered exams", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toExamResponses(exams)))
}

func (h *Handler) handleTimetable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exams, err := h.registration.Timetable(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to load timetable", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toExamResponses(exams)))
}

func (h *Handler) handlePayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parsePaymentFilter(r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payments, err := h.registration.Payments(ctx, requestcontext.StudentID(ctx), filter)
	if err != nil {
		h.writeQueryError(w, r, "failed to list payments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toPaymentResponses(payments)))
}

func (h *Handler) handleHallTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tickets, err := h.registration.HallTickets(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to list hall tickets", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toHallTicketResponses(tickets)))
}

func (h *Handler) handleAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attendance, err := h.registration.Attendance(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to list attendance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list(toAttendanceResponses(attendance)))
}

// handleProfile returns the authenticated student's directory record.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	student, err := h.registration.Profile(ctx, requestcontext.StudentID(ctx))
	if err != nil {
		h.writeQueryError(w, r, "failed to load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item(toProfileResponse(student)))
}

// handleResendConfirmation re-sends the confirmation for a paid registration.
func (h *Handler) handleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	studentID := requestcontext.StudentID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.registration.ResendConfirmation(ctx, studentID, req.examID); err != nil {
		h.logFailure(ctx, "confirmation resend failed", err,
			"request_id", requestID,
			"student_id", studentID.String(),
			"exam_id", req.examID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Success: true,
		Code:    "OK",
		Message: "Confirmation email sent",
	})
}

func (h *Handler) writeQueryError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logFailure(ctx, msg, err,
		"request_id", request.GetRequestID(ctx),
		"student_id", requestcontext.StudentID(ctx).String(),
	)
	httputil.WriteError(w, err)
}

// logFailure logs business rejections at warn and infrastructure failures at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	args = append(args, "code", string(dErrors.CodeOf(err)), "error", err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.WarnContext(ctx, msg, args...)
	}
}
