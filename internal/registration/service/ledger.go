package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
)

func newEntry(studentID id.StudentID, exam *models.Exam, amount decimal.Decimal, now time.Time) *models.RegistrationEntry {
	return &models.RegistrationEntry{
		ID:           id.RegistrationID(uuid.New()),
		StudentID:    studentID,
		ExamID:       exam.ID,
		Amount:       amount,
		Status:       models.StatusFor(exam),
		RegisteredAt: now.UTC(),
	}
}

// register inserts the ledger row. The store's compare-and-insert is the
// only uniqueness check; a conflict means the pair is already taken.
func register(ctx context.Context, st Store, entry *models.RegistrationEntry) error {
	if err := st.CreateRegistration(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeAlreadyRegistered, "already registered for this exam")
		}
		return err
	}
	return nil
}
