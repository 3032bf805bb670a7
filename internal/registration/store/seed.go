package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
)

// DemoStudentID is stable so dev tokens minted for it keep working across restarts.
var DemoStudentID = id.StudentID(uuid.MustParse("6f1c2a8e-3b7d-4c1e-9a55-2d0b8e4f7a10"))

// SeedDemoCatalog fills an in-memory store with one student, two courses and
// a mix of paid, free and past exams for local development.
func SeedDemoCatalog(s *InMemoryStore, now time.Time) {
	today := models.DateOf(now)

	s.PutStudent(&models.Student{
		ID:            DemoStudentID,
		StudentNumber: "2021CS001",
		Name:          "Asha Rao",
		Email:         "asha.rao@example.edu",
	})

	algorithms := &models.Course{ID: id.CourseID(uuid.New()), Code: "CS301", Name: "Algorithms"}
	networks := &models.Course{ID: id.CourseID(uuid.New()), Code: "CS302", Name: "Computer Networks"}
	s.PutCourse(algorithms)
	s.PutCourse(networks)

	s.PutAttendance(models.AttendanceRecord{StudentID: DemoStudentID, CourseID: algorithms.ID, Percentage: 82})
	s.PutAttendance(models.AttendanceRecord{StudentID: DemoStudentID, CourseID: networks.ID, Percentage: 74})

	s.PutExam(&models.Exam{
		ID:              id.ExamID(uuid.New()),
		CourseID:        algorithms.ID,
		Title:           "Algorithms End Semester",
		Type:            "end-semester",
		Date:            today.AddDate(0, 0, 14),
		StartTime:       "09:30",
		Venue:           "Block A, Hall 2",
		Fee:             decimal.RequireFromString("50.00"),
		RequiresPayment: true,
		MinAttendance:   75,
	})
	s.PutExam(&models.Exam{
		ID:            id.ExamID(uuid.New()),
		CourseID:      algorithms.ID,
		Title:         "Algorithms Mid Semester",
		Type:          "mid-semester",
		Date:          today.AddDate(0, 0, 3),
		StartTime:     "14:00",
		Venue:         "Block A, Hall 1",
		Fee:           decimal.Zero,
		MinAttendance: 75,
	})
	s.PutExam(&models.Exam{
		ID:              id.ExamID(uuid.New()),
		CourseID:        networks.ID,
		Title:           "Computer Networks End Semester",
		Type:            "end-semester",
		Date:            today.AddDate(0, 0, 21),
		StartTime:       "09:30",
		Venue:           "Block B, Hall 4",
		Fee:             decimal.RequireFromString("50.00"),
		RequiresPayment: true,
		MinAttendance:   75,
	})
	s.PutExam(&models.Exam{
		ID:              id.ExamID(uuid.New()),
		CourseID:        networks.ID,
		Title:           "Computer Networks Supplementary",
		Type:            "supplementary",
		Date:            today.AddDate(0, 0, -7),
		Venue:           "Block B, Hall 1",
		Fee:             decimal.RequireFromString("25.00"),
		RequiresPayment: true,
		MinAttendance:   60,
	})
}
