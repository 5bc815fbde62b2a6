// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups catalog exercises (e.g. "Chest", "Cardio").
// A nil TrainerID marks a global category visible to every trainer.
type Category struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	TrainerID *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
}

// Exercise is a catalog entry referenced by workout items.
type Exercise struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CategoryID  primitive.ObjectID  `bson:"categoryId" json:"categoryId"`
	TrainerID   *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"` // nil = global
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	MuscleGroup string              `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	VideoURL    string              `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// VisibleTo reports whether a trainer may use the exercise: global entries
// plus the trainer's own.
func (e *Exercise) VisibleTo(trainerID primitive.ObjectID) bool {
	return e.TrainerID == nil || *e.TrainerID == trainerID
}
