package repository

import (
	"alcyxob/coach-app/internal/domain"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// StoreError is a failed storage call. Code is the machine-readable code
// reported by the backend (e.g. a MongoDB server error code), Message its
// human-readable text.
type StoreError struct {
	Op      string // e.g. "workout_sessions.insert"
	Code    string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// TxManager runs fn atomically. Repository calls made with the ctx handed to
// fn participate in the transaction; if fn returns an error every write is
// rolled back.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// StudentRepository defines the interface for interacting with student data.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Student, error)
	GetByAccessToken(ctx context.Context, token string) (*domain.Student, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID, onlyActive bool) ([]domain.Student, error)
	SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error
	SetAccessToken(ctx context.Context, id, trainerID primitive.ObjectID, token string) error
}

// CatalogRepository reads the exercise catalog. List calls return global
// entries plus the ones owned by trainerID.
type CatalogRepository interface {
	ListCategories(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Category, error)
	ListExercises(ctx context.Context, trainerID primitive.ObjectID, categoryID *primitive.ObjectID) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
}

// WorkoutPlanRepository defines the interface for interacting with workout plans.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error
}

// WorkoutSessionRepository defines the interface for workout sessions.
// Delete cascades to the exercises of the removed sessions.
type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	Update(ctx context.Context, session *domain.WorkoutSession) error
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error)
	Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error
}

// WorkoutExerciseRepository defines the interface for workout items.
type WorkoutExerciseRepository interface {
	InsertMany(ctx context.Context, items []domain.WorkoutExercise) error
	DeleteBySessionID(ctx context.Context, sessionID primitive.ObjectID) error
	GetBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error)
}

// DietPlanRepository defines the interface for interacting with diet plans.
type DietPlanRepository interface {
	Create(ctx context.Context, plan *domain.DietPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.DietPlan, error)
	GetByStudentAndTrainerID(ctx context.Context, studentID, trainerID primitive.ObjectID) ([]domain.DietPlan, error)
	GetActiveByStudentID(ctx context.Context, studentID primitive.ObjectID) ([]domain.DietPlan, error)
	Update(ctx context.Context, plan *domain.DietPlan) error
	SetActive(ctx context.Context, id, trainerID primitive.ObjectID, active bool) error
}

// MealRepository defines the interface for meals. Delete cascades to foods.
type MealRepository interface {
	Create(ctx context.Context, meal *domain.Meal) (primitive.ObjectID, error)
	Update(ctx context.Context, meal *domain.Meal) error
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.Meal, error)
	Delete(ctx context.Context, planID primitive.ObjectID, ids []primitive.ObjectID) error
}

// MealFoodRepository defines the interface for meal items.
type MealFoodRepository interface {
	InsertMany(ctx context.Context, foods []domain.MealFood) error
	DeleteByMealID(ctx context.Context, mealID primitive.ObjectID) error
	GetByMealIDs(ctx context.Context, mealIDs []primitive.ObjectID) ([]domain.MealFood, error)
}

// CompletionFilter narrows ledger queries. From is inclusive, To exclusive.
type CompletionFilter struct {
	StudentID primitive.ObjectID
	ItemID    *primitive.ObjectID
	Kind      *domain.CompletionKind
	From      time.Time
	To        time.Time
}

// CompletionRepository is the append-only completion ledger.
type CompletionRepository interface {
	Append(ctx context.Context, event *domain.CompletionEvent) (primitive.ObjectID, error)
	List(ctx context.Context, filter CompletionFilter) ([]domain.CompletionEvent, error)
	Count(ctx context.Context, filter CompletionFilter) (int64, error)
}
