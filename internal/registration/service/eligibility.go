package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
)

// AttendanceReader looks up one student's attendance in one course.
type AttendanceReader interface {
	FindAttendance(ctx context.Context, studentID id.StudentID, courseID id.CourseID) (float64, error)
}

// Eligibility is the outcome of an attendance check.
type Eligibility struct {
	Eligible   bool
	Attendance float64
	Required   float64
}

// Err returns the coded rejection for an ineligible outcome, or nil.
func (e Eligibility) Err() error {
	if e.Eligible {
		return nil
	}
	return dErrors.New(dErrors.CodeInsufficientAttendance,
		fmt.Sprintf("attendance %.1f%% is below the required %.1f%%", e.Attendance, e.Required))
}

// meetsThreshold is inclusive: attendance equal to the minimum is eligible.
func meetsThreshold(attendance, required float64) bool {
	return attendance >= required
}

// Evaluator decides whether a student may sit an exam. It never writes.
type Evaluator struct {
	attendance AttendanceReader
	now        func(context.Context) time.Time
}

func NewEvaluator(attendance AttendanceReader, now func(context.Context) time.Time) *Evaluator {
	return &Evaluator{attendance: attendance, now: now}
}

// Evaluate fails with ExamNotOpen for a missing or past exam. Missing
// attendance counts as 0%.
func (e *Evaluator) Evaluate(ctx context.Context, studentID id.StudentID, exam *models.Exam) (Eligibility, error) {
	if exam == nil || !exam.IsOpen(e.now(ctx)) {
		return Eligibility{}, errExamNotOpen()
	}

	attendance, err := e.attendance.FindAttendance(ctx, studentID, exam.CourseID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return Eligibility{}, err
		}
		attendance = 0
	}

	return Eligibility{
		Eligible:   meetsThreshold(attendance, exam.MinAttendance),
		Attendance: attendance,
		Required:   exam.MinAttendance,
	}, nil
}

func errExamNotOpen() error {
	return dErrors.New(dErrors.CodeExamNotOpen, "exam is not open for registration")
}
