package service_test

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/metrics"
	"alcyxob/coach-app/internal/progress"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_StudentReport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.ledger.SetClock(func() time.Time { return monday })
	student := env.newStudent(t, "Bruno")
	plan := env.mondayPlan(t, student.ID)

	_, err := env.portal.RecordCompletion(ctx, student.AccessToken, domain.CompletionExercise, plan.Sessions[0].Items[0].ID)
	require.NoError(t, err)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	report, err := env.reports.StudentReport(ctx, env.trainer.ID, student.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, "Bruno", report.StudentName)
	assert.Equal(t, "Carla", report.TrainerName)
	assert.Equal(t, 2, report.TotalExercises)
	assert.Equal(t, 1, report.CompletedExercises)
	assert.Equal(t, 50.0, report.CompletionRate)
	assert.Equal(t, domain.BandNeedsAttention, report.Band)
	assert.Equal(t, "01/01/2024", report.PeriodStart)

	reports, err := env.reports.TrainerReports(ctx, env.trainer.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CounterReports))
}

func TestReportService_Archive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	env.mondayPlan(t, student.ID)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	archive, err := env.reports.Archive(ctx, env.trainer.ID, student.ID, from, from.AddDate(0, 0, 6))
	require.NoError(t, err)

	prefix := "reports/" + env.trainer.ID.Hex() + "/" + student.ID.Hex() + "/"
	assert.True(t, strings.HasPrefix(archive.Key, prefix), archive.Key)
	assert.True(t, strings.HasSuffix(archive.Key, ".json"))
	assert.Equal(t, "http://files.test/"+archive.Key+"?expires=1m0s", archive.DownloadURL)

	obj, ok := env.files.Get(archive.Key)
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	var stored domain.Report
	require.NoError(t, json.Unmarshal(obj.Body, &stored))
	assert.Equal(t, archive.Report, stored)
}

func TestReportService_ArchiveDisabled(t *testing.T) {
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	reports := service.NewReportService(progress.New(progress.Repos{}, env.ledger), nil, 0, metrics.NewTestManager())

	_, err := reports.Archive(context.Background(), env.trainer.ID, student.ID, monday, monday)
	assert.ErrorIs(t, err, service.ErrArchiveDisabled)
}

func TestReportService_ForeignStudent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")

	other := domain.User{Name: "Other", Email: "other@example.com", Role: domain.RoleTrainer}
	_, err := env.store.Users().Create(ctx, &other)
	require.NoError(t, err)

	_, err = env.reports.StudentReport(ctx, other.ID, student.ID, monday, monday)
	require.Error(t, err)
	_, err = env.reports.Archive(ctx, other.ID, student.ID, monday, monday)
	require.Error(t, err)
	assert.Empty(t, env.files.Keys())
}

// presignFailingStorage stores objects but cannot sign links.
type presignFailingStorage struct {
	*storage.MemoryStorage
}

var errSigning = errors.New("signing unavailable")

func (presignFailingStorage) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", errSigning
}

func TestReportService_ArchiveRemovesUnsignedObject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	env.mondayPlan(t, student.ID)

	aggregator := progress.New(progress.Repos{
		Users:            env.store.Users(),
		Students:         env.store.Students(),
		WorkoutPlans:     env.store.WorkoutPlans(),
		WorkoutSessions:  env.store.WorkoutSessions(),
		WorkoutExercises: env.store.WorkoutExercises(),
	}, env.ledger)
	files := presignFailingStorage{env.files}
	reports := service.NewReportService(aggregator, files, time.Minute, env.metrics)

	_, err := reports.Archive(ctx, env.trainer.ID, student.ID, monday, monday)
	require.ErrorIs(t, err, errSigning)
	assert.Empty(t, env.files.Keys())
}
