package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionKind tells which item collection a completion refers to.
type CompletionKind string

const (
	CompletionExercise CompletionKind = "exercise" // ItemID is a WorkoutExercise
	CompletionMeal     CompletionKind = "meal"     // ItemID is a Meal
)

func (k CompletionKind) IsValid() bool {
	switch k {
	case CompletionExercise, CompletionMeal:
		return true
	default:
		return false
	}
}

// CompletionEvent is an immutable ledger row: a student performed or consumed
// one item at CompletedAt. Rows are never updated or deleted.
type CompletionEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        CompletionKind     `bson:"kind" json:"kind"`
	ItemID      primitive.ObjectID `bson:"itemId" json:"itemId"`
	StudentID   primitive.ObjectID `bson:"studentId" json:"studentId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
}
