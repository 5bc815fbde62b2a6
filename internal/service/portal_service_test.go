package service_test

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/ledger"
	"alcyxob/coach-app/internal/service"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 2024-01-08 is a Monday.
var monday = time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)

func TestPortalService_Workout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ledger.SetClock(func() time.Time { return monday })
	student := env.newStudent(t, "Bruno")
	plan := env.mondayPlan(t, student.ID)
	itemID := plan.Sessions[0].Items[1].ID

	event, err := env.portal.RecordCompletion(ctx, student.AccessToken, domain.CompletionExercise, itemID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, event.StudentID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CounterCompletions.WithLabelValues("exercise")))

	got, err := env.portal.Workout(ctx, student.AccessToken, monday)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", got.StudentName)
	assert.Equal(t, 1, got.Today)
	assert.Equal(t, 1, got.DoneToday)
	require.Len(t, got.Plans, 1)
	session := got.Plans[0].Sessions[0]
	assert.True(t, session.Today)
	assert.False(t, session.Items[0].Done)
	assert.True(t, session.Items[1].Done)

	// the next day starts clean
	tuesday, err := env.portal.Workout(ctx, student.AccessToken, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, tuesday.Today)
	assert.Zero(t, tuesday.DoneToday)
	assert.False(t, tuesday.Plans[0].Sessions[0].Today)

	done, err := env.portal.ItemDoneToday(ctx, student.AccessToken, itemID, monday)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = env.portal.ItemDoneToday(ctx, student.AccessToken, itemID, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, done)
	_, err = env.portal.ItemDoneToday(ctx, "unknown", itemID, monday)
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
}

func TestPortalService_InactivePlansHidden(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	plan := env.mondayPlan(t, student.ID)
	require.NoError(t, env.plans.SetWorkoutPlanActive(ctx, env.trainer.ID, plan.Plan.ID, false))

	got, err := env.portal.Workout(ctx, student.AccessToken, monday)
	require.NoError(t, err)
	assert.Empty(t, got.Plans)

	_, err = env.portal.RecordCompletion(ctx, student.AccessToken, domain.CompletionExercise, plan.Sessions[0].Items[0].ID)
	var nf *ledger.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPortalService_Diet(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ledger.SetClock(func() time.Time { return monday })
	student := env.newStudent(t, "Bruno")
	plan, err := env.plans.CreateDietPlan(ctx, env.trainer.ID, student.ID, service.DietPlanInput{Name: "Bulk"},
		[]service.EditOp{
			{Op: service.OpAddMeal, Time: "08:00", Name: "Breakfast"},
			{Op: service.OpAddMeal, Time: "20:00", Name: "Dinner"},
		})
	require.NoError(t, err)

	_, err = env.portal.RecordCompletion(ctx, student.AccessToken, domain.CompletionMeal, plan.Meals[1].ID)
	require.NoError(t, err)

	got, err := env.portal.Diet(ctx, student.AccessToken, monday)
	require.NoError(t, err)
	require.Len(t, got.Plans, 1)
	assert.False(t, got.Plans[0].Meals[0].Done)
	assert.True(t, got.Plans[0].Meals[1].Done)
	assert.Equal(t, 1, got.DoneToday)
}

func TestPortalService_LinkNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")

	_, err := env.portal.Workout(ctx, "no-such-token", monday)
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
	_, err = env.portal.Diet(ctx, "", monday)
	assert.ErrorIs(t, err, service.ErrLinkNotFound)

	_, err = env.students.SetActive(ctx, env.trainer.ID, student.ID, false)
	require.NoError(t, err)
	_, err = env.portal.Workout(ctx, student.AccessToken, monday)
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
	_, err = env.portal.RecordCompletion(ctx, student.AccessToken, domain.CompletionExercise, primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrLinkNotFound)
}
