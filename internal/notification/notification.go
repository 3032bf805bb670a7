// Package notification renders and sends registration confirmation mail.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"examreg/pkg/email"
)

// Dispatcher delivers one message to one recipient.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Confirmation is the data printed in a registration confirmation.
type Confirmation struct {
	Institution string
	StudentName string
	Email       string
	ExamTitle   string
	Amount      decimal.Decimal
	Paid        bool
	TicketRef   string
	Date        time.Time
	Resend      bool
}

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>{{if .Paid}}Payment Confirmation{{else}}Registration Confirmation{{end}}</h2>
<p>Dear {{.Name}},</p>
<p>Your {{if .Resend}}payment{{else}}registration{{if .Paid}} and payment{{end}}{{end}} for the following exam has been successfully processed:</p>
<ul>
  <li><strong>Exam:</strong> {{.ExamTitle}}</li>
  <li><strong>Amount:</strong> ${{.Amount}}</li>
  {{- if .TicketRef}}
  <li><strong>Hall ticket:</strong> {{.TicketRef}}</li>
  {{- end}}
  <li><strong>Date:</strong> {{.Date}}</li>
</ul>
<p>Thank you.</p>
<p>Regards,<br>{{.Institution}}</p>
`))

// RenderConfirmation builds the confirmation subject and HTML body. Student
// supplied values are escaped by html/template.
func RenderConfirmation(c Confirmation) (Message, error) {
	data := struct {
		Name        string
		ExamTitle   string
		Amount      string
		Paid        bool
		Resend      bool
		TicketRef   string
		Date        string
		Institution string
	}{
		Name:        email.GreetingName(c.StudentName, c.Email),
		ExamTitle:   c.ExamTitle,
		Amount:      c.Amount.StringFixed(2),
		Paid:        c.Paid,
		Resend:      c.Resend,
		TicketRef:   c.TicketRef,
		Date:        c.Date.UTC().Format("2006-01-02"),
		Institution: c.Institution,
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}

	kind := "Registration Confirmation"
	if c.Paid {
		kind = "Payment Confirmation"
	}
	return Message{
		Subject: fmt.Sprintf("%s - %s Exam Registration", kind, c.Institution),
		Body:    buf.String(),
	}, nil
}
