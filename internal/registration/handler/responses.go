package handler

import (
	"time"

	jwttoken "examreg/internal/jwt_token"
	"examreg/internal/registration/models"
)

const dateLayout = "2006-01-02"

// RegisterResponse is the envelope returned for a registration attempt.
type RegisterResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	TicketRef string `json:"ticketRef,omitempty"`
	TicketURL string `json:"ticketUrl,omitempty"`
}

type listResponse[T any] struct {
	Success bool `json:"success"`
	Data    []T  `json:"data"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Success: true, Data: items}
}

type itemResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func item[T any](v T) itemResponse[T] {
	return itemResponse[T]{Success: true, Data: v}
}

type ExamResponse struct {
	ID              string  `json:"id"`
	CourseID        string  `json:"courseId"`
	CourseName      string  `json:"courseName,omitempty"`
	Title           string  `json:"title"`
	Type            string  `json:"type"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	Venue           string  `json:"venue"`
	Fee             string  `json:"fee"`
	RequiresPayment bool    `json:"requiresPayment"`
	MinAttendance   float64 `json:"minAttendance"`
}

type AvailableExamResponse struct {
	ExamResponse
	Attendance float64 `json:"attendance"`
	Registered bool    `json:"registered"`
	Eligible   bool    `json:"eligible"`
}

type PaymentResponse struct {
	ID        string `json:"id"`
	ExamID    string `json:"examId"`
	ExamTitle string `json:"examTitle"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	Date      string `json:"date"`
}

type HallTicketResponse struct {
	ID            string `json:"id"`
	ExamID        string `json:"examId"`
	Ref           string `json:"ref"`
	URL           string `json:"url"`
	IssuedAt      string `json:"issuedAt"`
	StudentNumber string `json:"studentNumber"`
	ExamTitle     string `json:"examTitle"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	Venue         string `json:"venue"`
}

type AttendanceResponse struct {
	CourseID             string  `json:"courseId"`
	CourseCode           string  `json:"courseCode"`
	CourseName           string  `json:"courseName"`
	AttendancePercentage float64 `json:"attendancePercentage"`
	MinAttendance        float64 `json:"minAttendance"`
	UpcomingExams        int     `json:"upcomingExams"`
	Eligible             bool    `json:"eligible"`
}

// ProfileResponse mirrors the student directory record. StudentID is the
// institution's student number.
type ProfileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	StudentID string `json:"studentId"`
	Role      string `json:"role"`
}

func toExamResponse(e *models.Exam) ExamResponse {
	return ExamResponse{
		ID:              e.ID.String(),
		CourseID:        e.CourseID.String(),
		CourseName:      e.CourseName,
		Title:           e.Title,
		Type:            e.Type,
		Date:            e.Date.Format(dateLayout),
		StartTime:       e.StartTime,
		Venue:           e.Venue,
		Fee:             e.Fee.StringFixed(2),
		RequiresPayment: e.RequiresPayment,
		MinAttendance:   e.MinAttendance,
	}
}

func toExamResponses(exams []*models.Exam) []ExamResponse {
	out := make([]ExamResponse, 0, len(exams))
	for _, e := range exams {
		out = append(out, toExamResponse(e))
	}
	return out
}

func toAvailableResponses(exams []models.AvailableExam) []AvailableExamResponse {
	out := make([]AvailableExamResponse, 0, len(exams))
	for _, e := range exams {
		out = append(out, AvailableExamResponse{
			ExamResponse: toExamResponse(e.Exam),
			Attendance:   e.Attendance,
			Registered:   e.Registered,
			Eligible:     e.Eligible,
		})
	}
	return out
}

func toPaymentResponses(records []models.PaymentRecord) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(records))
	for _, p := range records {
		out = append(out, PaymentResponse{
			ID:        p.ID.String(),
			ExamID:    p.ExamID.String(),
			ExamTitle: p.ExamTitle,
			Amount:    p.Amount.StringFixed(2),
			Status:    string(p.Status),
			Date:      p.Date.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func toHallTicketResponses(views []models.HallTicketView) []HallTicketResponse {
	out := make([]HallTicketResponse, 0, len(views))
	for _, v := range views {
		resp := HallTicketResponse{
			ID:            v.Ticket.ID.String(),
			ExamID:        v.Ticket.ExamID.String(),
			Ref:           v.Ticket.Ref,
			URL:           v.Ticket.URL,
			IssuedAt:      v.Ticket.IssuedAt.UTC().Format(time.RFC3339),
			StudentNumber: v.StudentNumber,
			ExamTitle:     v.ExamTitle,
			StartTime:     v.StartTime,
			Venue:         v.Venue,
		}
		if !v.Date.IsZero() {
			resp.Date = v.Date.Format(dateLayout)
		}
		out = append(out, resp)
	}
	return out
}

func toAttendanceResponses(rows []models.CourseAttendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, AttendanceResponse{
			CourseID:             a.Course.ID.String(),
			CourseCode:           a.Course.Code,
			CourseName:           a.Course.Name,
			AttendancePercentage: a.Percentage,
			MinAttendance:        a.Required,
			UpcomingExams:        a.UpcomingExams,
			Eligible:             a.Eligible,
		})
	}
	return out
}

func toProfileResponse(s *models.Student) ProfileResponse {
	return ProfileResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Email:     s.Email,
		StudentID: s.StudentNumber,
		Role:      jwttoken.RoleStudent,
	}
}
