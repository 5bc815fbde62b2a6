package mongo

import (
	"alcyxob/coach-app/internal/repository"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStoreError(t *testing.T) {
	t.Run("no documents", func(t *testing.T) {
		assert.ErrorIs(t, storeError("users.find", mongo.ErrNoDocuments), repository.ErrNotFound)
	})

	t.Run("duplicate key", func(t *testing.T) {
		err := storeError("students.insert", mongo.WriteException{
			WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
		})
		var se *repository.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "students.insert", se.Op)
		assert.Equal(t, "11000", se.Code)
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	})

	t.Run("bulk write", func(t *testing.T) {
		err := storeError("workout_exercises.insert", mongo.BulkWriteException{
			WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 121, Message: "Document failed validation"}}},
		})
		var se *repository.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "121", se.Code)
		assert.Equal(t, "Document failed validation", se.Message)
		assert.NotErrorIs(t, err, repository.ErrDuplicateKey)
	})

	t.Run("command error", func(t *testing.T) {
		err := storeError("workout_sessions.insert", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"})
		var se *repository.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "20", se.Code)
	})

	t.Run("already wrapped", func(t *testing.T) {
		inner := &repository.StoreError{Op: "meals.insert", Code: "11000"}
		assert.Same(t, inner, storeError("outer", inner))
	})

	t.Run("plain error", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := storeError("completions.find", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "completions.find: connection reset", err.Error())
	})

	assert.NoError(t, storeError("noop", nil))
}
