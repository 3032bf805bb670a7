package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	id "examreg/pkg/domain"
)

func TestExam_IsOpen(t *testing.T) {
	now := time.Date(2026, 5, 10, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"yesterday", time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), false},
		{"today earlier in the day", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), true},
		{"tomorrow", time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam := &Exam{Date: tt.date}
			assert.Equal(t, tt.want, exam.IsOpen(now))
		})
	}
}

func TestExam_FeeMatchesIgnoresScale(t *testing.T) {
	exam := &Exam{Fee: decimal.RequireFromString("50.00")}

	assert.True(t, exam.FeeMatches(decimal.NewFromInt(50)))
	assert.True(t, exam.FeeMatches(decimal.RequireFromString("50.0")))
	assert.False(t, exam.FeeMatches(decimal.RequireFromString("40.00")))
	assert.False(t, exam.FeeMatches(decimal.RequireFromString("50.001")))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusPaid, StatusFor(&Exam{RequiresPayment: true}))
	assert.Equal(t, StatusFree, StatusFor(&Exam{RequiresPayment: false}))
}

func TestParseEntryStatus(t *testing.T) {
	s, ok := ParseEntryStatus(" PAID ")
	assert.True(t, ok)
	assert.Equal(t, StatusPaid, s)

	_, ok = ParseEntryStatus("unpaid")
	assert.False(t, ok)
}

func TestTicketRef(t *testing.T) {
	examID := id.ExamID(uuid.MustParse("0a1b2c3d-0000-0000-0000-000000000000"))
	studentID := id.StudentID(uuid.MustParse("ffee0011-0000-0000-0000-000000000000"))
	issued := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, "HT-0A1B2C3D-FFEE0011-20260601", TicketRef(examID, studentID, issued))
}

func TestPaymentFilter(t *testing.T) {
	assert.True(t, PaymentFilter{}.Matches(StatusFree))
	only := PaymentFilter{Statuses: []EntryStatus{StatusPaid}}
	assert.True(t, only.Matches(StatusPaid))
	assert.False(t, only.Matches(StatusFree))
}
