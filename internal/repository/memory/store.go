// Package memory is an in-process implementation of the repository
// interfaces. It backs the test suites and the server's "memory" database
// driver for local development.
package memory

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// duplicate key code used by MongoDB, reused so callers see the same code
// regardless of backend
const duplicateKeyCode = "11000"

type tables struct {
	users            map[primitive.ObjectID]domain.User
	students         map[primitive.ObjectID]domain.Student
	categories       map[primitive.ObjectID]domain.Category
	exercises        map[primitive.ObjectID]domain.Exercise
	workoutPlans     map[primitive.ObjectID]domain.WorkoutPlan
	workoutSessions  map[primitive.ObjectID]domain.WorkoutSession
	workoutExercises map[primitive.ObjectID]domain.WorkoutExercise
	dietPlans        map[primitive.ObjectID]domain.DietPlan
	meals            map[primitive.ObjectID]domain.Meal
	mealFoods        map[primitive.ObjectID]domain.MealFood
	completions      []domain.CompletionEvent
}

func newTables() tables {
	return tables{
		users:            map[primitive.ObjectID]domain.User{},
		students:         map[primitive.ObjectID]domain.Student{},
		categories:       map[primitive.ObjectID]domain.Category{},
		exercises:        map[primitive.ObjectID]domain.Exercise{},
		workoutPlans:     map[primitive.ObjectID]domain.WorkoutPlan{},
		workoutSessions:  map[primitive.ObjectID]domain.WorkoutSession{},
		workoutExercises: map[primitive.ObjectID]domain.WorkoutExercise{},
		dietPlans:        map[primitive.ObjectID]domain.DietPlan{},
		meals:            map[primitive.ObjectID]domain.Meal{},
		mealFoods:        map[primitive.ObjectID]domain.MealFood{},
	}
}

// clone copies every table; values are plain structs so a shallow map copy
// is enough.
func (t tables) clone() tables {
	return tables{
		users:            maps.Clone(t.users),
		students:         maps.Clone(t.students),
		categories:       maps.Clone(t.categories),
		exercises:        maps.Clone(t.exercises),
		workoutPlans:     maps.Clone(t.workoutPlans),
		workoutSessions:  maps.Clone(t.workoutSessions),
		workoutExercises: maps.Clone(t.workoutExercises),
		dietPlans:        maps.Clone(t.dietPlans),
		meals:            maps.Clone(t.meals),
		mealFoods:        maps.Clone(t.mealFoods),
		completions:      slices.Clone(t.completions),
	}
}

// Store holds all collections in memory.
type Store struct {
	mu   sync.RWMutex
	data tables

	failures map[string]string
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		data:     newTables(),
		failures: map[string]string{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for CreatedAt/UpdatedAt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn makes the next call of op (e.g. "workout_exercises.insert") fail
// with a StoreError carrying code.
func (s *Store) FailOn(op, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = code
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	code, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return &repository.StoreError{Op: op, Code: code, Message: "injected failure"}
}

type txKey struct{}

// inTx reports whether ctx belongs to a transaction running on s.
func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the write lock unless ctx is inside a transaction, which already
// holds it. The returned func releases whatever was taken.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// WithTransaction holds the write lock while fn runs and restores the
// pre-transaction snapshot when fn fails. Callers outside the transaction
// block until it finishes, so a rollback never discards their writes.
// Repository calls must use the ctx passed to fn, from the calling goroutine.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Students() repository.StudentRepository { return &studentRepo{s} }
func (s *Store) Catalog() *CatalogRepo                  { return &CatalogRepo{s} }

func (s *Store) WorkoutPlans() repository.WorkoutPlanRepository { return &workoutPlanRepo{s} }

func (s *Store) WorkoutSessions() repository.WorkoutSessionRepository {
	return &workoutSessionRepo{s}
}

func (s *Store) WorkoutExercises() repository.WorkoutExerciseRepository {
	return &workoutExerciseRepo{s}
}

func (s *Store) DietPlans() repository.DietPlanRepository     { return &dietPlanRepo{s} }
func (s *Store) Meals() repository.MealRepository             { return &mealRepo{s} }
func (s *Store) MealFoods() repository.MealFoodRepository     { return &mealFoodRepo{s} }
func (s *Store) Completions() repository.CompletionRepository { return &completionRepo{s} }

func duplicate(op string) error {
	return &repository.StoreError{Op: op, Code: duplicateKeyCode, Message: "duplicate key", Err: repository.ErrDuplicateKey}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	return slices.Contains(ids, id)
}
