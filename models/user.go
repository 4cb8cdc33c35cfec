package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the kind of account a user holds
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether the role is one the API understands
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User holds the structure for the users collection in mongo
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Role         Role               `json:"role" bson:"role"`
	DoctorIDs    []string           `json:"doctorIds,omitempty" bson:"doctorIds,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HasDoctor reports whether the doctor is assigned to this user
func (u User) HasDoctor(doctorID string) bool {
	for _, id := range u.DoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller of a request
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// AssignPatientRequest is the body accepted when a doctor claims a patient.
// Patient may be a user id, an email address, or "Name (email)".
type AssignPatientRequest struct {
	Patient string `json:"patient"`
}

// TokenResponse is returned by the token endpoint
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
}

// AssignPatientResponse is returned once a doctor has claimed a patient
type AssignPatientResponse struct {
	Message string `json:"message"`
	Patient *User  `json:"patient"`
}
