package memory_test

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository"
	"alcyxob/coach-app/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWithTransaction_RollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	studentID := primitive.NewObjectID()
	trainerID := primitive.NewObjectID()
	errAbort := errors.New("abort")

	opened := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := store.WorkoutPlans().Create(ctx, &domain.WorkoutPlan{TrainerID: trainerID, StudentID: studentID, Name: "Draft"})
			if err != nil {
				return err
			}
			close(opened)
			<-release
			return errAbort
		})
	}()
	<-opened

	appended := make(chan error, 1)
	go func() {
		_, err := store.Completions().Append(ctx, &domain.CompletionEvent{
			Kind:        domain.CompletionMeal,
			ItemID:      primitive.NewObjectID(),
			StudentID:   studentID,
			CompletedAt: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		})
		appended <- err
	}()

	select {
	case <-appended:
		t.Fatal("append finished while the transaction was open")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.ErrorIs(t, <-txDone, errAbort)
	require.NoError(t, <-appended)

	n, err := store.Completions().Count(ctx, repository.CompletionFilter{
		StudentID: studentID,
		From:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	plans, err := store.WorkoutPlans().GetByStudentAndTrainerID(ctx, studentID, trainerID)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestWithTransaction_SeesOwnWritesAndNests(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	plan := &domain.WorkoutPlan{TrainerID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), Name: "Strength"}

	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := store.WorkoutPlans().Create(ctx, plan); err != nil {
			return err
		}
		return store.WithTransaction(ctx, func(ctx context.Context) error {
			got, err := store.WorkoutPlans().GetByID(ctx, plan.ID)
			if err != nil {
				return err
			}
			got.Name = "Strength v2"
			return store.WorkoutPlans().Update(ctx, got)
		})
	})
	require.NoError(t, err)

	got, err := store.WorkoutPlans().GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strength v2", got.Name)
}

func TestWithTransaction_InjectedFailureRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	plan := &domain.WorkoutPlan{TrainerID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), Name: "Base"}
	_, err := store.WorkoutPlans().Create(ctx, plan)
	require.NoError(t, err)

	store.FailOn("workout_sessions.insert", "8000")
	err = store.WithTransaction(ctx, func(ctx context.Context) error {
		renamed := *plan
		renamed.Name = "Renamed"
		if err := store.WorkoutPlans().Update(ctx, &renamed); err != nil {
			return err
		}
		_, err := store.WorkoutSessions().Create(ctx, &domain.WorkoutSession{PlanID: plan.ID, DayOfWeek: 1, Name: "Monday"})
		return err
	})
	var serr *repository.StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "8000", serr.Code)

	got, err := store.WorkoutPlans().GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Base", got.Name)
}
