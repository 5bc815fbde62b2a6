package service_test

import (
	"alcyxob/coach-app/internal/service"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStudentService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	student, err := env.students.CreateStudent(ctx, env.trainer.ID, service.StudentInput{
		Name:     "  Bruno  ",
		Email:    "Bruno@Example.com",
		TimeZone: "America/Sao_Paulo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bruno", student.Name)
	assert.Equal(t, "bruno@example.com", student.Email)
	assert.True(t, student.Active)
	assert.Len(t, student.AccessToken, 36)
	assert.Equal(t, "https://app.example.com/portal/"+student.AccessToken, env.students.PortalLink(student))

	_, err = env.students.CreateStudent(ctx, env.trainer.ID, service.StudentInput{Name: " "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.students.CreateStudent(ctx, env.trainer.ID, service.StudentInput{Name: "X", TimeZone: "Mars/Olympus"})
	assert.ErrorIs(t, err, service.ErrInvalidTimeZone)
}

func TestStudentService_Ownership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	stranger := primitive.NewObjectID()

	_, err := env.students.GetStudent(ctx, stranger, student.ID)
	assert.ErrorIs(t, err, service.ErrStudentNotFound)
	_, err = env.students.SetActive(ctx, stranger, student.ID, false)
	assert.ErrorIs(t, err, service.ErrStudentNotFound)
	_, err = env.students.RotateToken(ctx, stranger, student.ID)
	assert.ErrorIs(t, err, service.ErrStudentNotFound)

	list, err := env.students.ListStudents(ctx, stranger, false)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStudentService_SetActiveAndRotate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	student := env.newStudent(t, "Bruno")
	env.newStudent(t, "Carol")

	updated, err := env.students.SetActive(ctx, env.trainer.ID, student.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	active, err := env.students.ListStudents(ctx, env.trainer.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Carol", active[0].Name)

	all, err := env.students.ListStudents(ctx, env.trainer.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rotated, err := env.students.RotateToken(ctx, env.trainer.ID, student.ID)
	require.NoError(t, err)
	assert.NotEqual(t, student.AccessToken, rotated.AccessToken)

	_, err = env.store.Students().GetByAccessToken(ctx, student.AccessToken)
	assert.Error(t, err)
}
