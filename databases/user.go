package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patient-tracker/adherence-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	EnsureIndexes(ctx context.Context) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	AssignDoctor(ctx context.Context, patientID, doctorID string) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := u.db.Collection(userName).CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (u *userDatabase) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id %q", ErrNotFound, id)
	}
	return u.findOne(ctx, bson.M{"_id": oid})
}

func (u *userDatabase) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (u *userDatabase) Insert(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	return err
}

// AssignDoctor records doctorID as one of the patient's doctors
func (u *userDatabase) AssignDoctor(ctx context.Context, patientID, doctorID string) error {
	oid, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id %q", ErrNotFound, patientID)
	}
	res, err := u.db.Collection(userName).UpdateOne(ctx,
		bson.M{"_id": oid, "role": models.RolePatient},
		bson.M{"$addToSet": bson.M{"doctorIds": doctorID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *userDatabase) findOne(ctx context.Context, filter interface{}) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, filter).Decode(user)
	if err != nil {
		return nil, err
	}
	return user, nil
}
