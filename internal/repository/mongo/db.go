package mongo

import (
	"alcyxob/coach-app/internal/repository"
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	userCollectionName            = "users"
	studentCollectionName         = "students"
	categoryCollectionName        = "categories"
	exerciseCollectionName        = "exercises"
	workoutPlanCollectionName     = "workout_plans"
	workoutSessionCollectionName  = "workout_sessions"
	workoutExerciseCollectionName = "workout_exercises"
	dietPlanCollectionName        = "diet_plans"
	mealCollectionName            = "meals"
	mealFoodCollectionName        = "meal_foods"
	completionCollectionName      = "completions"
)

// ConnectDB establishes a connection to MongoDB using the provided URI.
// It returns the mongo.Client which can be used to access databases and collections.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary node to verify the connection.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// TxManager runs multi-document transactions. Transactions need a replica
// set; a standalone server rejects them with IllegalOperation.
type TxManager struct {
	client *mongo.Client
}

func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

var _ repository.TxManager = (*TxManager)(nil)

// WithTransaction runs fn inside a session transaction. The session context
// handed to fn must be passed to every repository call of the unit of work.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		return err
	})
}

// storeError converts a driver error into the repository error vocabulary.
// Missing documents become repository.ErrNotFound; everything else becomes a
// *repository.StoreError carrying the server code when there is one.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	var se *repository.StoreError
	if errors.As(err, &se) {
		return err
	}

	out := &repository.StoreError{Op: op, Message: err.Error(), Err: err}
	if mongo.IsDuplicateKeyError(err) {
		out.Err = repository.ErrDuplicateKey
	}

	var (
		cmdErr  mongo.CommandError
		writeEx mongo.WriteException
		bulkEx  mongo.BulkWriteException
	)
	switch {
	case errors.As(err, &writeEx) && len(writeEx.WriteErrors) > 0:
		out.Code = strconv.Itoa(writeEx.WriteErrors[0].Code)
		out.Message = writeEx.WriteErrors[0].Message
	case errors.As(err, &bulkEx) && len(bulkEx.WriteErrors) > 0:
		out.Code = strconv.Itoa(bulkEx.WriteErrors[0].Code)
		out.Message = bulkEx.WriteErrors[0].Message
	case errors.As(err, &cmdErr):
		out.Code = strconv.Itoa(int(cmdErr.Code))
		out.Message = cmdErr.Message
	}
	return out
}

// EnsureIndexes creates the indexes every collection relies on. The unique
// ones back invariants the services depend on, so failures are returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ensure := []func(context.Context, *mongo.Database) error{
		ensureUserIndexes,
		ensureStudentIndexes,
		ensureCatalogIndexes,
		ensureWorkoutIndexes,
		ensureDietIndexes,
		ensureCompletionIndexes,
	}
	for _, fn := range ensure {
		if err := fn(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return storeError(collection.Name()+".createIndexes", err)
	}
	return nil
}
