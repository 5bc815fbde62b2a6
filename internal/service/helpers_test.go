package service_test

import (
	"alcyxob/coach-app/internal/composer"
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/repository/memory"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEnv struct {
	store    *memory.Store
	files    *storage.MemoryStorage
	metrics  *metrics.Manager
	ledger   *ledger.Ledger
	students service.StudentService
	plans    service.PlanService
	portal   service.PortalService
	reports  service.ReportService

	trainer  domain.User
	category domain.Category
	squat    domain.Exercise
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	env := &testEnv{
		store:   store,
		files:   storage.NewMemoryStorage("http://files.test"),
		metrics: metrics.NewTestManager(),
	}

	env.trainer = domain.User{Name: "Carla", Email: "carla@example.com", Role: domain.RoleTrainer, Cref: "012345-G/SP"}
	id, err := store.Users().Create(ctx, &env.trainer)
	require.NoError(t, err)
	env.trainer.ID = id

	env.category = domain.Category{Name: "Legs"}
	_, err = store.Catalog().CreateCategory(ctx, &env.category)
	require.NoError(t, err)
	env.squat = domain.Exercise{CategoryID: env.category.ID, Name: "Squat"}
	_, err = store.Catalog().CreateExercise(ctx, &env.squat)
	require.NoError(t, err)

	workout := composer.WorkoutRepos{
		Tx:        store,
		Plans:     store.WorkoutPlans(),
		Sessions:  store.WorkoutSessions(),
		Exercises: store.WorkoutExercises(),
	}
	diet := composer.DietRepos{
		Tx:    store,
		Plans: store.DietPlans(),
		Meals: store.Meals(),
		Foods: store.MealFoods(),
	}
	env.ledger = ledger.New(ledger.Repos{
		Students:         store.Students(),
		Completions:      store.Completions(),
		WorkoutPlans:     store.WorkoutPlans(),
		WorkoutSessions:  store.WorkoutSessions(),
		WorkoutExercises: store.WorkoutExercises(),
		DietPlans:        store.DietPlans(),
		Meals:            store.Meals(),
	}, time.UTC)
	aggregator := progress.New(progress.Repos{
		Users:            store.Users(),
		Students:         store.Students(),
		WorkoutPlans:     store.WorkoutPlans(),
		WorkoutSessions:  store.WorkoutSessions(),
		WorkoutExercises: store.WorkoutExercises(),
	}, env.ledger)

	env.students = service.NewStudentService(store.Students(), "https://app.example.com/")
	env.plans = service.NewPlanService(workout, diet, store.Students(), store.Catalog(), env.metrics)
	env.portal = service.NewPortalService(store.Students(), workout, diet, store.Catalog(), env.ledger, env.metrics)
	env.reports = service.NewReportService(aggregator, env.files, time.Minute, env.metrics)
	return env
}

func (e *testEnv) newStudent(t *testing.T, name string) *domain.Student {
	t.Helper()
	s, err := e.students.CreateStudent(context.Background(), e.trainer.ID, service.StudentInput{Name: name})
	require.NoError(t, err)
	return s
}

func day(d int) *int {
	return &d
}

// mondayPlan creates an active workout plan with two squat items on Monday.
func (e *testEnv) mondayPlan(t *testing.T, studentID primitive.ObjectID) *service.WorkoutPlanView {
	t.Helper()
	view, err := e.plans.CreateWorkoutPlan(context.Background(), e.trainer.ID, studentID,
		service.WorkoutPlanInput{Name: "Strength", FrequencyPerWeek: 1, DurationWeeks: 4},
		[]service.EditOp{
			{Op: service.OpAddSession, Day: day(1), Name: "Lower"},
			{Op: service.OpAddItem, Day: day(1), ExerciseID: e.squat.ID.Hex()},
			{Op: service.OpAddItem, Day: day(1), ExerciseID: e.squat.ID.Hex()},
		})
	require.NoError(t, err)
	return view
}
