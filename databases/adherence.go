package databases

// go generate: mockery --name AdherenceDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patient-tracker/adherence-api/models"
)

const adherenceName = "medicine_adherence"

// AdherenceDatabase contains the methods to use with the adherence ledger
type AdherenceDatabase interface {
	EnsureIndexes(ctx context.Context) error
	FindByKey(ctx context.Context, key models.DoseKey) (*models.AdherenceRecord, error)
	Insert(ctx context.Context, record *models.AdherenceRecord) error
	UpdateStatus(ctx context.Context, key models.DoseKey, status models.AdherenceStatus, now time.Time) error
	SeedReminder(ctx context.Context, record models.AdherenceRecord, now time.Time) error
	FindByPatientDate(ctx context.Context, patientID, date string) ([]models.AdherenceRecord, error)
	FindByPatientDateRange(ctx context.Context, patientID, from, to string) ([]models.AdherenceRecord, error)
	FindPending(ctx context.Context, filter models.PendingFilter) ([]models.AdherenceRecord, error)
	MarkMissed(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	InsertMissed(ctx context.Context, record models.AdherenceRecord, now time.Time) (bool, error)
	DeleteForPrescription(ctx context.Context, prescriptionID string, medicineIDs []string) (int64, error)
}

type adherenceDatabase struct {
	db DatabaseHelper
}

// NewAdherenceDatabase initializes a new instance of adherence database with the provided db connection
func NewAdherenceDatabase(db DatabaseHelper) AdherenceDatabase {
	return &adherenceDatabase{
		db: db,
	}
}

func keyFilter(key models.DoseKey) bson.M {
	return bson.M{
		"patientId":     key.PatientID,
		"medicineId":    key.MedicineID,
		"scheduledDate": key.ScheduledDate,
		"scheduledTime": key.ScheduledTime,
	}
}

// EnsureIndexes creates the unique ledger key and the sweep lookup index
func (a *adherenceDatabase) EnsureIndexes(ctx context.Context) error {
	coll := a.db.Collection(adherenceName)
	_, err := coll.CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "patientId", Value: 1},
			{Key: "medicineId", Value: 1},
			{Key: "scheduledDate", Value: 1},
			{Key: "scheduledTime", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("dose_key"),
	})
	if err != nil {
		return err
	}
	_, err = coll.CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "scheduledDate", Value: 1},
			{Key: "adherenceStatus", Value: 1},
			{Key: "scheduledTime", Value: 1},
		},
	})
	return err
}

func (a *adherenceDatabase) FindByKey(ctx context.Context, key models.DoseKey) (*models.AdherenceRecord, error) {
	record := &models.AdherenceRecord{}
	err := a.db.Collection(adherenceName).FindOne(ctx, keyFilter(key)).Decode(record)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *adherenceDatabase) Insert(ctx context.Context, record *models.AdherenceRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	_, err := a.db.Collection(adherenceName).InsertOne(ctx, record)
	return err
}

// UpdateStatus sets the status of an existing record. Moving into Missed
// increments missedDoses once; repeating Missed on a Missed record is a no-op.
func (a *adherenceDatabase) UpdateStatus(ctx context.Context, key models.DoseKey, status models.AdherenceStatus, now time.Time) error {
	coll := a.db.Collection(adherenceName)
	filter := keyFilter(key)
	update := bson.M{"$set": bson.M{"adherenceStatus": status, "updatedAt": now}}
	if status == models.StatusMissed {
		filter["adherenceStatus"] = bson.M{"$ne": models.StatusMissed}
		update["$inc"] = bson.M{"missedDoses": 1}
	}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := coll.CountDocuments(ctx, keyFilter(key))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedReminder flags the record as reminded, creating it as Pending when absent
func (a *adherenceDatabase) SeedReminder(ctx context.Context, record models.AdherenceRecord, now time.Time) error {
	update := bson.M{
		"$set": bson.M{"reminderSent": true, "updatedAt": now},
		"$setOnInsert": bson.M{
			"adherenceStatus": models.StatusPending,
			"missedDoses":     0,
			"medication":      record.Medication,
			"prescriptionId":  record.PrescriptionID,
			"createdAt":       now,
		},
	}
	opts := options.Update().SetUpsert(true)
	coll := a.db.Collection(adherenceName)
	_, err := coll.UpdateOne(ctx, keyFilter(record.Key()), update, opts)
	if errors.Is(err, ErrDuplicateKey) {
		// a concurrent upsert created the row first; now it matches
		_, err = coll.UpdateOne(ctx, keyFilter(record.Key()), update, opts)
	}
	return err
}

func (a *adherenceDatabase) FindByPatientDate(ctx context.Context, patientID, date string) ([]models.AdherenceRecord, error) {
	return a.find(ctx, bson.M{"patientId": patientID, "scheduledDate": date})
}

func (a *adherenceDatabase) FindByPatientDateRange(ctx context.Context, patientID, from, to string) ([]models.AdherenceRecord, error) {
	filter := bson.M{
		"patientId":     patientID,
		"scheduledDate": bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: -1}, {Key: "scheduledTime", Value: 1}})
	return a.find(ctx, filter, opts)
}

func (a *adherenceDatabase) FindPending(ctx context.Context, f models.PendingFilter) ([]models.AdherenceRecord, error) {
	filter := bson.M{
		"scheduledDate":   f.ScheduledDate,
		"adherenceStatus": models.StatusPending,
		"scheduledTime":   bson.M{"$in": f.Periods},
	}
	if f.PatientID != "" {
		filter["patientId"] = f.PatientID
	}
	return a.find(ctx, filter)
}

// MarkMissed moves a single record from Pending to Missed. It reports false
// when the record was no longer Pending.
func (a *adherenceDatabase) MarkMissed(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	res, err := a.db.Collection(adherenceName).UpdateOne(ctx,
		bson.M{"_id": id, "adherenceStatus": models.StatusPending},
		bson.M{
			"$set": bson.M{"adherenceStatus": models.StatusMissed, "updatedAt": now},
			"$inc": bson.M{"missedDoses": 1},
		})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// InsertMissed records a dose nobody acted on as Missed. It reports false
// when a record for the key already exists.
func (a *adherenceDatabase) InsertMissed(ctx context.Context, record models.AdherenceRecord, now time.Time) (bool, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"adherenceStatus": models.StatusMissed,
		"missedDoses":     1,
		"reminderSent":    false,
		"medication":      record.Medication,
		"prescriptionId":  record.PrescriptionID,
		"createdAt":       now,
		"updatedAt":       now,
	}}
	res, err := a.db.Collection(adherenceName).UpdateOne(ctx, keyFilter(record.Key()), update, options.Update().SetUpsert(true))
	if errors.Is(err, ErrDuplicateKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func (a *adherenceDatabase) DeleteForPrescription(ctx context.Context, prescriptionID string, medicineIDs []string) (int64, error) {
	or := bson.A{bson.M{"prescriptionId": prescriptionID}}
	if len(medicineIDs) > 0 {
		or = append(or, bson.M{"medicineId": bson.M{"$in": medicineIDs}})
	}
	return a.db.Collection(adherenceName).DeleteMany(ctx, bson.M{"$or": or})
}

func (a *adherenceDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AdherenceRecord, error) {
	var records []models.AdherenceRecord
	cur, err := a.db.Collection(adherenceName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
