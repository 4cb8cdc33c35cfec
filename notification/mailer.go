package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/models"
	templates "github.com/patient-tracker/adherence-api/templates/html"
)

// ErrMailerNotConfigured is returned when no SendGrid API key was provided
var ErrMailerNotConfigured = errors.New("sendgrid api key not configured")

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends reminder emails through SendGrid
type SendGridMailer struct {
	client sendClient
	from   *mail.Email
}

// NewSendGridMailer returns a mailer for the given API key and sender. An
// empty key yields a mailer whose sends always fail.
func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	m := &SendGridMailer{from: mail.NewEmail(fromName, fromEmail)}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// SendReminderEmail emails the patient the doses due in period
func (m *SendGridMailer) SendReminderEmail(ctx context.Context, email, name string, doses []models.ExpectedDose, period models.Period) error {
	if m.client == nil {
		return ErrMailerNotConfigured
	}

	lines := make([]templates.ReminderLine, 0, len(doses))
	for _, d := range doses {
		lines = append(lines, templates.ReminderLine{
			Name:         d.MedicineName,
			Dosage:       d.Dosage,
			Instructions: d.Instructions,
		})
	}

	to := mail.NewEmail(name, email)
	message := mail.NewSingleEmail(m.from,
		templates.ReminderSubject(period.String()),
		to,
		templates.RenderMedicationReminderText(name, period.String(), lines),
		templates.RenderMedicationReminderEmail(name, period.String(), lines))

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	zap.S().Infow("medication reminder email sent", "email", email, "period", period, "medicines", len(doses))
	return nil
}
