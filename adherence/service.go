// Package adherence owns the dose state machine: marking doses, closing
// overdue ones, reminding patients and reporting on what they took.
package adherence

import (
	"context"
	"errors"
	"time"

	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
	"github.com/patient-tracker/adherence-api/schedule"
)

// Notifier pushes events to a patient's live sessions
type Notifier interface {
	NotifyPatient(patientID string, n models.Notification)
}

// Mailer sends the reminder email for a period
type Mailer interface {
	SendReminderEmail(ctx context.Context, email, name string, doses []models.ExpectedDose, period models.Period) error
}

// Service holds the collaborators every adherence operation works against
type Service struct {
	Prescriptions databases.PrescriptionDatabase
	Ledger        databases.AdherenceDatabase
	Users         databases.UserDatabase
	Notifier      Notifier
	Mailer        Mailer
	Now           func() time.Time
}

// NewService wires a Service with the wall clock
func NewService(prescriptions databases.PrescriptionDatabase, ledger databases.AdherenceDatabase, users databases.UserDatabase, notifier Notifier, mailer Mailer) *Service {
	return &Service{
		Prescriptions: prescriptions,
		Ledger:        ledger,
		Users:         users,
		Notifier:      notifier,
		Mailer:        mailer,
		Now:           time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Authorize checks that the principal may act on the patient. Patients may
// only act on themselves; doctors on the patients assigned to them.
func (s *Service) Authorize(ctx context.Context, principal models.Principal, patientID string) error {
	if patientID == "" {
		return validationError("patientId is required")
	}
	switch principal.Role {
	case models.RolePatient:
		if principal.ID != patientID {
			return forbiddenError("patients may only access their own records")
		}
		return nil
	case models.RoleDoctor:
		patient, err := s.patient(ctx, patientID)
		if err != nil {
			return err
		}
		if !patient.HasDoctor(principal.ID) {
			return forbiddenError("patient %s is not assigned to this doctor", patientID)
		}
		return nil
	}
	return forbiddenError("unknown role %q", principal.Role)
}

func (s *Service) patient(ctx context.Context, patientID string) (*models.User, error) {
	u, err := s.Users.FindByID(ctx, patientID)
	if errors.Is(err, databases.ErrNotFound) {
		return nil, notFoundError("patient %s", patientID)
	}
	if err != nil {
		return nil, err
	}
	if u.Role != models.RolePatient {
		return nil, notFoundError("patient %s", patientID)
	}
	return u, nil
}

// Today returns the current schedule day
func (s *Service) Today() time.Time {
	return schedule.Day(s.now())
}

// CurrentPeriod returns the period containing the current time
func (s *Service) CurrentPeriod() models.Period {
	return schedule.PeriodFor(s.now().Hour())
}

func requireDoctor(principal models.Principal) error {
	if principal.Role != models.RoleDoctor {
		return forbiddenError("only doctors may do this")
	}
	return nil
}
