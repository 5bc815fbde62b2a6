package service

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPlanNotFound       = composer.ErrPlanNotFound
	ErrUnknownOperation   = errors.New("unknown edit operation")
	ErrOperationArguments = errors.New("missing or invalid operation arguments")
)

// Edit operation names accepted by EditWorkoutPlan and EditDietPlan.
const (
	OpSetPlan       = "setPlan"
	OpAddSession    = "addSession"
	OpRemoveSession = "removeSession"
	OpRenameSession = "renameSession"
	OpAddMeal       = "addMeal"
	OpRemoveMeal    = "removeMeal"
	OpRenameMeal    = "renameMeal"
	OpAddItem       = "addItem"
	OpUpdateItem    = "updateItem"
	OpRemoveItem    = "removeItem"
	OpMoveItem      = "moveItem"
)

// PlanFields are the scalar plan fields a setPlan operation may change.
// Nil fields are left alone.
type PlanFields struct {
	Name             *string  `json:"name,omitempty"`
	Description      *string  `json:"description,omitempty"`
	FrequencyPerWeek *int     `json:"frequencyPerWeek,omitempty"`
	DurationWeeks    *int     `json:"durationWeeks,omitempty"`
	DailyCalories    *int     `json:"dailyCalories,omitempty"`
	DailyProtein     *float64 `json:"dailyProtein,omitempty"`
	DailyCarbs       *float64 `json:"dailyCarbs,omitempty"`
	DailyFat         *float64 `json:"dailyFat,omitempty"`
}

// FoodInput is the payload of an addItem operation on a diet plan.
type FoodInput struct {
	FoodName string  `json:"foodName"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Notes    string  `json:"notes,omitempty"`
}

// EditOp is one composer mutation. Workout operations address a session by
// Day (0 = Sunday), diet operations address a meal by Time ("HH:MM").
type EditOp struct {
	Op         string      `json:"op"`
	Day        *int        `json:"day,omitempty"`
	Time       string      `json:"time,omitempty"`
	Name       string      `json:"name,omitempty"`
	Index      int         `json:"index,omitempty"`
	To         int         `json:"to,omitempty"`
	Field      string      `json:"field,omitempty"`
	Value      any         `json:"value,omitempty"`
	ExerciseID string      `json:"exerciseId,omitempty"`
	Food       *FoodInput  `json:"food,omitempty"`
	Plan       *PlanFields `json:"plan,omitempty"`
}

// OpError tells which operation of a batch failed. Nothing is saved when an
// operation fails.
type OpError struct {
	Index int
	Op    string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

type WorkoutPlanInput struct {
	Name             string
	Description      string
	FrequencyPerWeek int
	DurationWeeks    int
}

type DietPlanInput struct {
	Name          string
	Description   string
	DailyCalories *int
	DailyProtein  *float64
	DailyCarbs    *float64
	DailyFat      *float64
}

// PlanService manages a trainer's workout and diet plans. Every mutation
// applies a batch of edit operations to the plan tree and saves it once.
type PlanService interface {
	CreateWorkoutPlan(ctx context.Context, trainerID, studentID primitive.ObjectID, in WorkoutPlanInput, ops []EditOp) (*WorkoutPlanView, error)
	ListWorkoutPlans(ctx context.Context, trainerID, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetWorkoutPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*WorkoutPlanView, error)
	EditWorkoutPlan(ctx context.Context, trainerID, planID primitive.ObjectID, ops []EditOp) (*WorkoutPlanView, error)
	SetWorkoutPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error

	CreateDietPlan(ctx context.Context, trainerID, studentID primitive.ObjectID, in DietPlanInput, ops []EditOp) (*DietPlanView, error)
	ListDietPlans(ctx context.Context, trainerID, studentID primitive.ObjectID) ([]domain.DietPlan, error)
	GetDietPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*DietPlanView, error)
	EditDietPlan(ctx context.Context, trainerID, planID primitive.ObjectID, ops []EditOp) (*DietPlanView, error)
	SetDietPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error
}

type planService struct {
	workout     composer.WorkoutRepos
	diet        composer.DietRepos
	studentRepo repository.StudentRepository
	catalog     CatalogService
	catalogRepo repository.CatalogRepository
	metrics     *metrics.Manager
}

func NewPlanService(
	workout composer.WorkoutRepos,
	diet composer.DietRepos,
	studentRepo repository.StudentRepository,
	catalogRepo repository.CatalogRepository,
	metricsManager *metrics.Manager,
) PlanService {
	return &planService{
		workout:     workout,
		diet:        diet,
		studentRepo: studentRepo,
		catalog:     NewCatalogService(catalogRepo),
		catalogRepo: catalogRepo,
		metrics:     metricsManager,
	}
}

func (s *planService) ownStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) error {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	if student.TrainerID != trainerID {
		return ErrStudentNotFound
	}
	return nil
}

func saveResult(err error) string {
	var verr *composer.ValidationError
	var dup *composer.DuplicateSlotError
	var opErr *OpError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr), errors.As(err, &dup), errors.As(err, &opErr):
		return "invalid"
	default:
		return "error"
	}
}

// save runs fn and records its outcome.
func (s *planService) save(kind string, planID primitive.ObjectID, fn func() error) error {
	err := fn()
	s.metrics.PlanSaved(kind, saveResult(err))

	var perr *composer.PersistenceError
	if errors.As(err, &perr) {
		log.WithFields(log.Fields{
			"kind": kind,
			"plan": planID.Hex(),
			"step": perr.Step,
			"code": perr.Code,
		}).Errorf("plan save failed: %s", perr.Message)
	}
	return err
}

// === Workout plans ===

func (s *planService) CreateWorkoutPlan(ctx context.Context, trainerID, studentID primitive.ObjectID, in WorkoutPlanInput, ops []EditOp) (*WorkoutPlanView, error) {
	if err := s.ownStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}
	c := composer.NewWorkout(s.workout, domain.WorkoutPlan{
		TrainerID:        trainerID,
		StudentID:        studentID,
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		Active:           true,
		FrequencyPerWeek: in.FrequencyPerWeek,
		DurationWeeks:    in.DurationWeeks,
	})
	err := s.save("workout", primitive.NilObjectID, func() error {
		if err := s.applyWorkoutOps(ctx, trainerID, c, ops); err != nil {
			return err
		}
		return c.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"trainer": trainerID.Hex(), "plan": c.Plan().ID.Hex()}).Info("workout plan created")
	return workoutView(ctx, s.catalogRepo, c, nil, noDay)
}

func (s *planService) ListWorkoutPlans(ctx context.Context, trainerID, studentID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if err := s.ownStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}
	return s.workout.Plans.GetByStudentAndTrainerID(ctx, studentID, trainerID)
}

func (s *planService) loadWorkout(ctx context.Context, trainerID, planID primitive.ObjectID) (*composer.WorkoutComposer, error) {
	c, err := composer.LoadWorkout(ctx, s.workout, planID)
	if err != nil {
		return nil, err
	}
	if c.Plan().TrainerID != trainerID {
		return nil, ErrPlanNotFound
	}
	return c, nil
}

func (s *planService) GetWorkoutPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*WorkoutPlanView, error) {
	c, err := s.loadWorkout(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}
	return workoutView(ctx, s.catalogRepo, c, nil, noDay)
}

func (s *planService) EditWorkoutPlan(ctx context.Context, trainerID, planID primitive.ObjectID, ops []EditOp) (*WorkoutPlanView, error) {
	c, err := s.loadWorkout(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}
	err = s.save("workout", planID, func() error {
		if err := s.applyWorkoutOps(ctx, trainerID, c, ops); err != nil {
			return err
		}
		return c.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	return workoutView(ctx, s.catalogRepo, c, nil, noDay)
}

func (s *planService) SetWorkoutPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error {
	err := s.workout.Plans.SetActive(ctx, planID, trainerID, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func (s *planService) applyWorkoutOps(ctx context.Context, trainerID primitive.ObjectID, c *composer.WorkoutComposer, ops []EditOp) error {
	for i, op := range ops {
		if err := s.applyWorkoutOp(ctx, trainerID, c, op); err != nil {
			return &OpError{Index: i, Op: op.Op, Err: err}
		}
	}
	return nil
}

func (s *planService) applyWorkoutOp(ctx context.Context, trainerID primitive.ObjectID, c *composer.WorkoutComposer, op EditOp) error {
	if op.Op == OpSetPlan {
		return setWorkoutFields(c.Plan(), op.Plan)
	}
	if op.Day == nil {
		return fmt.Errorf("%w: day is required", ErrOperationArguments)
	}
	day := *op.Day

	switch op.Op {
	case OpAddSession:
		return c.AddSession(day, op.Name)
	case OpRemoveSession:
		c.RemoveSession(day)
		return nil
	case OpRenameSession:
		return c.RenameSession(day, op.Name)
	case OpAddItem:
		exerciseID, err := s.visibleExercise(ctx, trainerID, op.ExerciseID)
		if err != nil {
			return err
		}
		_, err = c.AddItem(day, exerciseID)
		return err
	case OpUpdateItem:
		field := composer.ItemField(op.Field)
		value := op.Value
		if field == composer.FieldExerciseID {
			hexID, _ := value.(string)
			exerciseID, err := s.visibleExercise(ctx, trainerID, hexID)
			if err != nil {
				return err
			}
			value = exerciseID
		}
		return c.UpdateItem(day, op.Index, field, value)
	case OpRemoveItem:
		return c.RemoveItem(day, op.Index)
	case OpMoveItem:
		return c.MoveItem(day, op.Index, op.To)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
}

// visibleExercise parses hexID and checks that the trainer may use it.
func (s *planService) visibleExercise(ctx context.Context, trainerID primitive.ObjectID, hexID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: exerciseId %q", ErrOperationArguments, hexID)
	}
	if _, err := s.catalog.GetExercise(ctx, trainerID, id); err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

func setWorkoutFields(plan *domain.WorkoutPlan, f *PlanFields) error {
	if f == nil {
		return fmt.Errorf("%w: plan fields are required", ErrOperationArguments)
	}
	if f.Name != nil {
		plan.Name = strings.TrimSpace(*f.Name)
	}
	if f.Description != nil {
		plan.Description = strings.TrimSpace(*f.Description)
	}
	if f.FrequencyPerWeek != nil {
		plan.FrequencyPerWeek = *f.FrequencyPerWeek
	}
	if f.DurationWeeks != nil {
		plan.DurationWeeks = *f.DurationWeeks
	}
	return nil
}

// === Diet plans ===

func (s *planService) CreateDietPlan(ctx context.Context, trainerID, studentID primitive.ObjectID, in DietPlanInput, ops []EditOp) (*DietPlanView, error) {
	if err := s.ownStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}
	c := composer.NewDiet(s.diet, domain.DietPlan{
		TrainerID:     trainerID,
		StudentID:     studentID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Active:        true,
		DailyCalories: in.DailyCalories,
		DailyProtein:  in.DailyProtein,
		DailyCarbs:    in.DailyCarbs,
		DailyFat:      in.DailyFat,
	})
	err := s.save("diet", primitive.NilObjectID, func() error {
		if err := applyDietOps(c, ops); err != nil {
			return err
		}
		return c.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"trainer": trainerID.Hex(), "plan": c.Plan().ID.Hex()}).Info("diet plan created")
	return dietView(c, nil), nil
}

func (s *planService) ListDietPlans(ctx context.Context, trainerID, studentID primitive.ObjectID) ([]domain.DietPlan, error) {
	if err := s.ownStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}
	return s.diet.Plans.GetByStudentAndTrainerID(ctx, studentID, trainerID)
}

func (s *planService) loadDiet(ctx context.Context, trainerID, planID primitive.ObjectID) (*composer.DietComposer, error) {
	c, err := composer.LoadDiet(ctx, s.diet, planID)
	if err != nil {
		return nil, err
	}
	if c.Plan().TrainerID != trainerID {
		return nil, ErrPlanNotFound
	}
	return c, nil
}

func (s *planService) GetDietPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*DietPlanView, error) {
	c, err := s.loadDiet(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}
	return dietView(c, nil), nil
}

func (s *planService) EditDietPlan(ctx context.Context, trainerID, planID primitive.ObjectID, ops []EditOp) (*DietPlanView, error) {
	c, err := s.loadDiet(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}
	err = s.save("diet", planID, func() error {
		if err := applyDietOps(c, ops); err != nil {
			return err
		}
		return c.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	return dietView(c, nil), nil
}

func (s *planService) SetDietPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error {
	err := s.diet.Plans.SetActive(ctx, planID, trainerID, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func applyDietOps(c *composer.DietComposer, ops []EditOp) error {
	for i, op := range ops {
		if err := applyDietOp(c, op); err != nil {
			return &OpError{Index: i, Op: op.Op, Err: err}
		}
	}
	return nil
}

func applyDietOp(c *composer.DietComposer, op EditOp) error {
	if op.Op == OpSetPlan {
		return setDietFields(c.Plan(), op.Plan)
	}
	if op.Time == "" {
		return fmt.Errorf("%w: time is required", ErrOperationArguments)
	}

	switch op.Op {
	case OpAddMeal:
		return c.AddMeal(op.Time, op.Name)
	case OpRemoveMeal:
		c.RemoveMeal(op.Time)
		return nil
	case OpRenameMeal:
		return c.RenameMeal(op.Time, op.Name)
	case OpAddItem:
		if op.Food == nil {
			return fmt.Errorf("%w: food is required", ErrOperationArguments)
		}
		_, err := c.AddItem(op.Time, domain.MealFood{
			FoodName: op.Food.FoodName,
			Quantity: op.Food.Quantity,
			Unit:     strings.TrimSpace(op.Food.Unit),
			Calories: op.Food.Calories,
			Protein:  op.Food.Protein,
			Carbs:    op.Food.Carbs,
			Fat:      op.Food.Fat,
			Notes:    strings.TrimSpace(op.Food.Notes),
		})
		return err
	case OpUpdateItem:
		return c.UpdateItem(op.Time, op.Index, composer.ItemField(op.Field), op.Value)
	case OpRemoveItem:
		return c.RemoveItem(op.Time, op.Index)
	case OpMoveItem:
		return c.MoveItem(op.Time, op.Index, op.To)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
}

func setDietFields(plan *domain.DietPlan, f *PlanFields) error {
	if f == nil {
		return fmt.Errorf("%w: plan fields are required", ErrOperationArguments)
	}
	if f.Name != nil {
		plan.Name = strings.TrimSpace(*f.Name)
	}
	if f.Description != nil {
		plan.Description = strings.TrimSpace(*f.Description)
	}
	if f.DailyCalories != nil {
		plan.DailyCalories = f.DailyCalories
	}
	if f.DailyProtein != nil {
		plan.DailyProtein = f.DailyProtein
	}
	if f.DailyCarbs != nil {
		plan.DailyCarbs = f.DailyCarbs
	}
	if f.DailyFat != nil {
		plan.DailyFat = f.DailyFat
	}
	return nil
}
