package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is the subject of plans. Students never log in; they reach their
// plans through the tokenized link built from AccessToken.
type Student struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	AccessToken string             `bson:"accessToken" json:"-"`
	Active      bool               `bson:"active" json:"active"`
	TimeZone    string             `bson:"timeZone,omitempty" json:"timeZone,omitempty"` // IANA name, empty means server default
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Location resolves the student's time zone, falling back to def when the
// stored name is empty or unknown.
func (s *Student) Location(def *time.Location) *time.Location {
	if def == nil {
		def = time.UTC
	}
	if s.TimeZone == "" {
		return def
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return def
	}
	return loc
}
