package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"examreg/internal/registration/models"
	id "examreg/pkg/domain"
)

// issueHallTicket creates the ticket for a ledger entry inside the same unit
// of work. Any failure, a conflict included, is a storage fault.
func issueHallTicket(ctx context.Context, st Store, entry *models.RegistrationEntry) (*models.HallTicket, error) {
	ticketID := id.HallTicketID(uuid.New())
	ticket := &models.HallTicket{
		ID:        ticketID,
		StudentID: entry.StudentID,
		ExamID:    entry.ExamID,
		Ref:       models.TicketRef(entry.ExamID, entry.StudentID, entry.RegisteredAt),
		URL:       models.TicketURL(ticketID),
		IssuedAt:  entry.RegisteredAt,
	}
	if err := st.CreateHallTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("issue hall ticket: %w", err)
	}
	return ticket, nil
}
