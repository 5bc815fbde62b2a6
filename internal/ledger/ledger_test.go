package ledger_test

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/repository/memory"
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store   *memory.Store
	ledger  *ledger.Ledger
	student domain.Student
	items   []primitive.ObjectID // workout items of the active plan
	meal    primitive.ObjectID
}

func newFixture(t *testing.T, timeZone string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	f := &fixture{store: store}

	f.student = domain.Student{
		TrainerID:   primitive.NewObjectID(),
		Name:        "Ana",
		AccessToken: uuid.NewString(),
		Active:      true,
		TimeZone:    timeZone,
	}
	_, err := store.Students().Create(ctx, &f.student)
	require.NoError(t, err)

	plan := domain.WorkoutPlan{TrainerID: f.student.TrainerID, StudentID: f.student.ID, Name: "A", Active: true}
	_, err = store.WorkoutPlans().Create(ctx, &plan)
	require.NoError(t, err)
	session := domain.WorkoutSession{PlanID: plan.ID, DayOfWeek: 1, Name: "Monday"}
	_, err = store.WorkoutSessions().Create(ctx, &session)
	require.NoError(t, err)
	var items []domain.WorkoutExercise
	for i := 0; i < 3; i++ {
		item := domain.NewWorkoutExercise(primitive.NewObjectID())
		item.ID = primitive.NewObjectID()
		item.SessionID = session.ID
		item.OrderIndex = i
		items = append(items, item)
		f.items = append(f.items, item.ID)
	}
	require.NoError(t, store.WorkoutExercises().InsertMany(ctx, items))

	diet := domain.DietPlan{TrainerID: f.student.TrainerID, StudentID: f.student.ID, Name: "D", Active: true}
	_, err = store.DietPlans().Create(ctx, &diet)
	require.NoError(t, err)
	meal := domain.Meal{PlanID: diet.ID, Name: "Breakfast", TimeOfDay: "08:00"}
	f.meal, err = store.Meals().Create(ctx, &meal)
	require.NoError(t, err)

	f.ledger = ledger.New(ledger.Repos{
		Students:         store.Students(),
		Completions:      store.Completions(),
		WorkoutPlans:     store.WorkoutPlans(),
		WorkoutSessions:  store.WorkoutSessions(),
		WorkoutExercises: store.WorkoutExercises(),
		DietPlans:        store.DietPlans(),
		Meals:            store.Meals(),
	}, time.UTC)
	return f
}

func (f *fixture) at(ts time.Time) {
	f.ledger.SetClock(func() time.Time { return ts })
}

func TestDayBounds(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// spring forward: 23 hour day
	start, end := ledger.DayBounds(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), ny)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ny), start)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, ny), end)
	assert.Equal(t, 23*time.Hour, end.Sub(start))

	// fall back: 25 hour day
	start, end = ledger.DayBounds(time.Date(2024, 11, 3, 12, 0, 0, 0, ny), ny)
	assert.Equal(t, 25*time.Hour, end.Sub(start))

	// 02:30 UTC on the 5th is still the 4th in New York
	start, _ = ledger.DayBounds(time.Date(2024, 1, 5, 2, 30, 0, 0, time.UTC), ny)
	assert.Equal(t, 4, start.Day())
}

func TestIsCompletedToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	now := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	f.at(now)
	item := f.items[0]

	done, err := f.ledger.IsCompletedToday(ctx, item, f.student.ID, now)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, item, f.student.ID)
	require.NoError(t, err)
	done, err = f.ledger.IsCompletedToday(ctx, item, f.student.ID, now)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, item, f.student.ID)
	require.NoError(t, err)
	done, err = f.ledger.IsCompletedToday(ctx, item, f.student.ID, now)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = f.ledger.IsCompletedToday(ctx, item, f.student.ID, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, done)

	done, err = f.ledger.IsCompletedToday(ctx, f.items[1], f.student.ID, now)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestIsCompletedToday_StudentTimeZone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "America/Sao_Paulo")
	// 01:00 UTC on the 9th is 22:00 on the 8th in Sao Paulo
	f.at(time.Date(2024, 1, 9, 1, 0, 0, 0, time.UTC))
	_, err := f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[0], f.student.ID)
	require.NoError(t, err)

	done, err := f.ledger.IsCompletedToday(ctx, f.items[0], f.student.ID, time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, done)
	done, err = f.ledger.IsCompletedToday(ctx, f.items[0], f.student.ID, time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRecordCompletion_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	var nf *ledger.NotFoundError

	_, err := f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[0], primitive.NewObjectID())
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "student", nf.Resource)

	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, primitive.NewObjectID(), f.student.ID)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "exercise", nf.Resource)

	// a meal id is not an exercise
	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.meal, f.student.ID)
	require.ErrorAs(t, err, &nf)

	_, err = f.ledger.RecordCompletion(ctx, "workout", f.items[0], f.student.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidKind)

	require.NoError(t, f.store.Students().SetActive(ctx, f.student.ID, f.student.TrainerID, false))
	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[0], f.student.ID)
	require.ErrorAs(t, err, &nf)

	events, err := f.ledger.CompletionsInRange(ctx, f.student.ID, time.Time{}, time.Now().AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordCompletion_Meal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	event, err := f.ledger.RecordCompletion(ctx, domain.CompletionMeal, f.meal, f.student.ID)
	require.NoError(t, err)
	assert.False(t, event.ID.IsZero())
	assert.Equal(t, domain.CompletionMeal, event.Kind)
}

func TestCompletionsInRange_HalfOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	for _, ts := range []time.Time{from.Add(-time.Second), from, from.Add(72 * time.Hour), to.Add(-time.Nanosecond), to} {
		f.at(ts)
		_, err := f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[0], f.student.ID)
		require.NoError(t, err)
	}

	events, err := f.ledger.CompletionsInRange(ctx, f.student.ID, from, to)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, from, events[0].CompletedAt)
	assert.Equal(t, to.Add(-time.Nanosecond), events[2].CompletedAt)
	for _, e := range events {
		assert.Equal(t, domain.CompletionExercise, e.Kind)
	}
}

func TestDayView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	f.at(now)
	_, err := f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[1], f.student.ID)
	require.NoError(t, err)
	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionMeal, f.meal, f.student.ID)
	require.NoError(t, err)

	day, err := f.ledger.Day(ctx, &f.student, now)
	require.NoError(t, err)
	assert.False(t, day.Done(f.items[0]))
	assert.True(t, day.Done(f.items[1]))
	assert.True(t, day.Done(f.meal))
	assert.Equal(t, 2, day.Count())

	// a view is a snapshot of the moment it was loaded
	_, err = f.ledger.RecordCompletion(ctx, domain.CompletionExercise, f.items[0], f.student.ID)
	require.NoError(t, err)
	assert.False(t, day.Done(f.items[0]))
}
