package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between account roles
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// User is a login account. Trainers own students, plans and catalog entries;
// admins additionally manage trainer accounts.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Document     string             `bson:"document,omitempty" json:"document,omitempty"` // CPF
	Cref         string             `bson:"cref,omitempty" json:"cref,omitempty"`         // Professional registration number
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
