package databases

// go generate: mockery --name PrescriptionDatabase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patient-tracker/adherence-api/models"
)

const prescriptionName = "prescriptions"

// PrescriptionDatabase contains the methods to use with the prescription database
type PrescriptionDatabase interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, p *models.Prescription) error
	FindByID(ctx context.Context, id string) (*models.Prescription, error)
	FindByPatient(ctx context.Context, patientID string) ([]models.Prescription, error)
	PatientIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type prescriptionDatabase struct {
	db DatabaseHelper
}

// NewPrescriptionDatabase initializes a new instance of prescription database with the provided db connection
func NewPrescriptionDatabase(db DatabaseHelper) PrescriptionDatabase {
	return &prescriptionDatabase{
		db: db,
	}
}

func (p *prescriptionDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := p.db.Collection(prescriptionName).CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (p *prescriptionDatabase) Insert(ctx context.Context, prescription *models.Prescription) error {
	if prescription.ID.IsZero() {
		prescription.ID = primitive.NewObjectID()
	}
	_, err := p.db.Collection(prescriptionName).InsertOne(ctx, prescription)
	return err
}

func (p *prescriptionDatabase) FindByID(ctx context.Context, id string) (*models.Prescription, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid prescription id %q", ErrNotFound, id)
	}
	prescription := &models.Prescription{}
	err = p.db.Collection(prescriptionName).FindOne(ctx, bson.M{"_id": oid}).Decode(prescription)
	if err != nil {
		return nil, err
	}
	return prescription, nil
}

func (p *prescriptionDatabase) FindByPatient(ctx context.Context, patientID string) ([]models.Prescription, error) {
	var prescriptions []models.Prescription
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := p.db.Collection(prescriptionName).Find(ctx, bson.M{"patientId": patientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &prescriptions); err != nil {
		return nil, err
	}
	return prescriptions, nil
}

// PatientIDs returns every patient that holds at least one prescription
func (p *prescriptionDatabase) PatientIDs(ctx context.Context) ([]string, error) {
	values, err := p.db.Collection(prescriptionName).Distinct(ctx, "patientId", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (p *prescriptionDatabase) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: invalid prescription id %q", ErrNotFound, id)
	}
	n, err := p.db.Collection(prescriptionName).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
