package handler

import (
	"github.com/shopspring/decimal"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
)

// RegisterRequest is the body of POST /user/exams/register. Amount accepts a
// JSON number or a decimal string.
type RegisterRequest struct {
	ExamID string           `json:"examId" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"required"`

	examID id.ExamID
}

// Validate parses the exam id and rejects negative amounts.
func (r *RegisterRequest) Validate() error {
	examID, err := id.ParseExamID(r.ExamID)
	if err != nil {
		return err
	}
	if r.Amount == nil {
		return dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	if r.Amount.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	r.examID = examID
	return nil
}

// ResendRequest is the body of POST /user/payments/email.
type ResendRequest struct {
	ExamID string `json:"examId" validate:"required"`

	examID id.ExamID
}

func (r *ResendRequest) Validate() error {
	examID, err := id.ParseExamID(r.ExamID)
	if err != nil {
		return err
	}
	r.examID = examID
	return nil
}

// parsePaymentFilter reads ?status=paid|free|all. Empty means all.
func parsePaymentFilter(raw string) (models.PaymentFilter, error) {
	if raw == "" || raw == "all" {
		return models.PaymentFilter{}, nil
	}
	status, ok := models.ParseEntryStatus(raw)
	if !ok {
		return models.PaymentFilter{}, dErrors.New(dErrors.CodeBadRequest, "status must be paid, free or all")
	}
	return models.PaymentFilter{Statuses: []models.EntryStatus{status}}, nil
}
