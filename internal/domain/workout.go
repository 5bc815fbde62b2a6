package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Defaults applied to a freshly added workout item.
const (
	DefaultSets        = 3
	DefaultRepsMin     = 8
	DefaultRepsMax     = 12
	DefaultRestSeconds = 60
)

// WorkoutPlan is a training program assigned by a trainer to one student.
// Plans are never hard-deleted; Active is the soft state.
type WorkoutPlan struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID        primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	StudentID        primitive.ObjectID `bson:"studentId" json:"studentId"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Active           bool               `bson:"active" json:"active"`
	FrequencyPerWeek int                `bson:"frequencyPerWeek" json:"frequencyPerWeek"`
	DurationWeeks    int                `bson:"durationWeeks" json:"durationWeeks"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutSession is one training day of a plan. DayOfWeek is 0 (Sunday) to 6
// and unique within the plan.
type WorkoutSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	DayOfWeek int                `bson:"dayOfWeek" json:"dayOfWeek"`
	Name      string             `bson:"name" json:"name"`
}

// WorkoutExercise is one exercise prescription inside a session.
type WorkoutExercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets        int                `bson:"sets" json:"sets"`
	RepsMin     int                `bson:"repsMin" json:"repsMin"`
	RepsMax     int                `bson:"repsMax" json:"repsMax"`
	RestSeconds int                `bson:"restSeconds" json:"restSeconds"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	OrderIndex  int                `bson:"orderIndex" json:"orderIndex"`
}

// NewWorkoutExercise returns an item for exerciseID with the default prescription.
func NewWorkoutExercise(exerciseID primitive.ObjectID) WorkoutExercise {
	return WorkoutExercise{
		ExerciseID:  exerciseID,
		Sets:        DefaultSets,
		RepsMin:     DefaultRepsMin,
		RepsMax:     DefaultRepsMax,
		RestSeconds: DefaultRestSeconds,
	}
}
