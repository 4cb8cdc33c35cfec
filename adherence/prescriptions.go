package adherence

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
)

// DefaultCondition labels prescriptions created without a condition
const DefaultCondition = "General"

var emailInParens = regexp.MustCompile(`\(([^()]+@[^()]+)\)\s*$`)

// ValidatePrescription checks a create-prescription request
func ValidatePrescription(req models.PrescriptionRequest) error {
	if strings.TrimSpace(req.PatientID) == "" {
		return validationError("patientId is required")
	}
	if len(req.Medicines) == 0 {
		return validationError("at least one medicine is required")
	}
	for i, m := range req.Medicines {
		switch {
		case strings.TrimSpace(m.Name) == "":
			return validationError("medicine %d: name is required", i+1)
		case strings.TrimSpace(m.Dosage) == "":
			return validationError("medicine %d: dosage is required", i+1)
		case m.Timing == nil || !m.Timing.Any():
			return validationError("medicine %d: at least one of morning, afternoon or evening is required", i+1)
		case strings.TrimSpace(m.Instructions) == "":
			return validationError("medicine %d: instructions are required", i+1)
		case strings.TrimSpace(m.Duration) == "":
			return validationError("medicine %d: duration is required", i+1)
		}
	}
	return nil
}

// CreatePrescription stores a new prescription written by the doctor for one
// of their patients
func (s *Service) CreatePrescription(ctx context.Context, principal models.Principal, req models.PrescriptionRequest) (*models.Prescription, error) {
	if err := requireDoctor(principal); err != nil {
		return nil, err
	}
	if err := ValidatePrescription(req); err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, principal, req.PatientID); err != nil {
		return nil, err
	}

	now := s.now()
	condition := strings.TrimSpace(req.Condition)
	if condition == "" {
		condition = DefaultCondition
	}
	p := &models.Prescription{
		ID:        primitive.NewObjectID(),
		PatientID: req.PatientID,
		DoctorID:  principal.ID,
		Date:      now,
		Condition: condition,
		CreatedAt: now,
	}
	for _, m := range req.Medicines {
		p.Medicines = append(p.Medicines, models.PrescribedMedicine{
			ID:           primitive.NewObjectID(),
			CatalogID:    strings.TrimSpace(m.ID),
			Name:         strings.TrimSpace(m.Name),
			Dosage:       strings.TrimSpace(m.Dosage),
			Duration:     strings.TrimSpace(m.Duration),
			Instructions: strings.TrimSpace(m.Instructions),
			Timing:       *m.Timing,
		})
	}
	if err := s.Prescriptions.Insert(ctx, p); err != nil {
		return nil, err
	}
	zap.S().Infow("prescription created",
		"prescriptionId", p.ID.Hex(),
		"patientId", p.PatientID,
		"doctorId", p.DoctorID,
		"medicines", len(p.Medicines))
	return p, nil
}

// DeletePrescription removes a prescription together with every ledger entry
// that references it or one of its medicines
func (s *Service) DeletePrescription(ctx context.Context, principal models.Principal, prescriptionID string) error {
	if err := requireDoctor(principal); err != nil {
		return err
	}
	p, err := s.Prescriptions.FindByID(ctx, prescriptionID)
	if errors.Is(err, databases.ErrNotFound) {
		return notFoundError("prescription %s", prescriptionID)
	}
	if err != nil {
		return err
	}
	if err := s.Authorize(ctx, principal, p.PatientID); err != nil {
		return err
	}

	removed, err := s.Ledger.DeleteForPrescription(ctx, p.ID.Hex(), p.MedicineIDs())
	if err != nil {
		return err
	}
	err = s.Prescriptions.Delete(ctx, prescriptionID)
	if errors.Is(err, databases.ErrNotFound) {
		return notFoundError("prescription %s", prescriptionID)
	}
	if err != nil {
		return err
	}
	zap.S().Infow("prescription deleted",
		"prescriptionId", prescriptionID,
		"patientId", p.PatientID,
		"adherenceRecordsRemoved", removed)
	return nil
}

// ListPrescriptions returns the patient's prescriptions, newest first
func (s *Service) ListPrescriptions(ctx context.Context, principal models.Principal, patientID string) ([]models.Prescription, error) {
	if err := s.Authorize(ctx, principal, patientID); err != nil {
		return nil, err
	}
	prescriptions, err := s.Prescriptions.FindByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if prescriptions == nil {
		prescriptions = []models.Prescription{}
	}
	return prescriptions, nil
}

// AssignPatient adds the patient to the doctor's list. ref is a user id, an
// email address, or "Name (email)" as shown by patient pickers.
func (s *Service) AssignPatient(ctx context.Context, principal models.Principal, ref string) (*models.User, error) {
	if err := requireDoctor(principal); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, validationError("patient is required")
	}

	var patient *models.User
	var err error
	if primitive.IsValidObjectID(ref) {
		patient, err = s.Users.FindByID(ctx, ref)
	} else {
		email := ref
		if m := emailInParens.FindStringSubmatch(ref); m != nil {
			email = m[1]
		}
		patient, err = s.Users.FindByEmail(ctx, email)
	}
	if errors.Is(err, databases.ErrNotFound) {
		return nil, notFoundError("patient %q", ref)
	}
	if err != nil {
		return nil, err
	}
	if patient.Role != models.RolePatient {
		return nil, validationError("%q is not a patient", ref)
	}
	if patient.HasDoctor(principal.ID) {
		return patient, nil
	}

	if err := s.Users.AssignDoctor(ctx, patient.ID.Hex(), principal.ID); err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, notFoundError("patient %q", ref)
		}
		return nil, err
	}
	patient.DoctorIDs = append(patient.DoctorIDs, principal.ID)
	return patient, nil
}
